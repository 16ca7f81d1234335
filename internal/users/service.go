package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakandloom/workshop-backend/pkg/auth"
	"github.com/oakandloom/workshop-backend/pkg/config"
	"github.com/oakandloom/workshop-backend/pkg/db"
	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	pkgerrors "github.com/oakandloom/workshop-backend/pkg/errors"
	"github.com/oakandloom/workshop-backend/pkg/roles"
	"github.com/oakandloom/workshop-backend/pkg/security"
)

const tempPasswordLength = 12

// Service manages staff accounts and authentication. Accounts are created
// with a generated temporary password the admin hands to the worker; login
// mints a role-bearing access token.
type Service interface {
	Create(ctx context.Context, input CreateUserInput) (*CreatedUser, error)
	Authenticate(ctx context.Context, input AuthenticateInput) (*AuthResult, error)
	ChangePassword(ctx context.Context, input ChangePasswordInput) error
	SetRole(ctx context.Context, input SetRoleInput) error
	Deactivate(ctx context.Context, input ToggleInput) error
	Reactivate(ctx context.Context, input ToggleInput) error
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)
	List(ctx context.Context, params ListParams) ([]models.User, error)
}

type service struct {
	repo        Repository
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

// CreateUserInput registers a new staff account.
type CreateUserInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     *string
	Role      enums.Role
	ActorRole enums.Role
}

// CreatedUser pairs the stored account with its one-time temporary password.
type CreatedUser struct {
	User         *models.User
	TempPassword string
}

// AuthenticateInput carries login credentials.
type AuthenticateInput struct {
	Email    string
	Password string
}

// AuthResult is a successful login.
type AuthResult struct {
	User        *models.User
	AccessToken string
	ExpiresAt   time.Time
}

// ChangePasswordInput rotates a user's own password.
type ChangePasswordInput struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// SetRoleInput reassigns a user's role.
type SetRoleInput struct {
	UserID    uuid.UUID
	Role      enums.Role
	ActorRole enums.Role
}

// ToggleInput activates or deactivates an account.
type ToggleInput struct {
	UserID    uuid.UUID
	ActorRole enums.Role
}

// ListParams filters account listing.
type ListParams struct {
	Role       *enums.Role
	ActiveOnly bool
}

// NewService wires the user account dependencies.
func NewService(repo Repository, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{repo: repo, jwtCfg: jwtCfg, passwordCfg: passwordCfg}, nil
}

func (s *service) Create(ctx context.Context, input CreateUserInput) (*CreatedUser, error) {
	if !roles.Can(input.ActorRole, roles.CapManageUsers) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot manage users")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid email required")
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        input.Phone,
		Role:         input.Role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return &CreatedUser{User: user, TempPassword: tempPassword}, nil
}

func (s *service) Authenticate(ctx context.Context, input AuthenticateInput) (*AuthResult, error) {
	if input.Email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password required")
	}

	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return nil, invalidCredentials()
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, invalidCredentials()
	}

	now := time.Now().UTC()
	token, err := auth.MintAccessToken(s.jwtCfg, now, auth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}

	// A lost last_login_at update is harmless.
	_, _ = s.repo.Update(ctx, user.ID, map[string]any{"last_login_at": now})
	user.LastLoginAt = &now

	return &AuthResult{
		User:        user,
		AccessToken: token,
		ExpiresAt:   now.Add(s.jwtCfg.Expiration()),
	}, nil
}

func (s *service) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	if len(input.NewPassword) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	user, err := s.loadUser(ctx, input.UserID)
	if err != nil {
		return err
	}
	ok, err := security.VerifyPassword(input.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "current password does not match")
	}

	hash, err := security.HashPassword(input.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if _, err := s.repo.Update(ctx, user.ID, map[string]any{"password_hash": hash}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return nil
}

func (s *service) SetRole(ctx context.Context, input SetRoleInput) error {
	if !roles.Can(input.ActorRole, roles.CapManageUsers) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot manage users")
	}
	if !input.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	user, err := s.loadUser(ctx, input.UserID)
	if err != nil {
		return err
	}
	if user.Role == input.Role {
		return nil
	}
	if _, err := s.repo.Update(ctx, user.ID, map[string]any{"role": input.Role}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update role")
	}
	return nil
}

func (s *service) Deactivate(ctx context.Context, input ToggleInput) error {
	return s.setActive(ctx, input, false)
}

func (s *service) Reactivate(ctx context.Context, input ToggleInput) error {
	return s.setActive(ctx, input, true)
}

func (s *service) setActive(ctx context.Context, input ToggleInput, active bool) error {
	if !roles.Can(input.ActorRole, roles.CapManageUsers) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot manage users")
	}
	user, err := s.loadUser(ctx, input.UserID)
	if err != nil {
		return err
	}
	if user.IsActive == active {
		return nil
	}
	if _, err := s.repo.Update(ctx, user.ID, map[string]any{"is_active": active}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.loadUser(ctx, userID)
}

func (s *service) List(ctx context.Context, params ListParams) ([]models.User, error) {
	users, err := s.repo.List(ctx, listUsersParams{Role: params.Role, ActiveOnly: params.ActiveOnly})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return users, nil
}

func (s *service) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.Find(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

// invalidCredentials deliberately does not distinguish unknown accounts from
// wrong passwords or deactivated accounts.
func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}
