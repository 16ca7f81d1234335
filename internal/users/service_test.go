package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakandloom/workshop-backend/pkg/auth"
	"github.com/oakandloom/workshop-backend/pkg/config"
	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	pkgerrors "github.com/oakandloom/workshop-backend/pkg/errors"
	"github.com/oakandloom/workshop-backend/pkg/security"
)

type stubUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[uuid.UUID]*models.User{}}
}

func (r *stubUserRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return errors.New(`duplicate key value violates unique constraint "idx_users_email"`)
		}
	}
	user.ID = uuid.New()
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) Find(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) List(ctx context.Context, params listUsersParams) ([]models.User, error) {
	out := []models.User{}
	for _, user := range r.users {
		if params.Role != nil && user.Role != *params.Role {
			continue
		}
		if params.ActiveOnly && !user.IsActive {
			continue
		}
		out = append(out, *user)
	}
	return out, nil
}

func (r *stubUserRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	user, ok := r.users[id]
	if !ok {
		return 0, nil
	}
	for column, value := range updates {
		switch column {
		case "password_hash":
			user.PasswordHash = value.(string)
		case "role":
			user.Role = value.(enums.Role)
		case "is_active":
			user.IsActive = value.(bool)
		case "last_login_at":
			at := value.(time.Time)
			user.LastLoginAt = &at
		}
	}
	return 1, nil
}

var (
	testJWTConfig      = config.JWTConfig{Secret: "test-secret", Issuer: "workshop-test", ExpirationMinutes: 60}
	testPasswordConfig = config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
)

func newUserService(t *testing.T) (Service, *stubUserRepo) {
	t.Helper()
	repo := newStubUserRepo()
	svc, err := NewService(repo, testJWTConfig, testPasswordConfig)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo
}

func seedUser(t *testing.T, repo *stubUserRepo, email, password string, role enums.Role) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Rosa",
		LastName:     "Iversen",
		Role:         role,
		IsActive:     true,
	}
	repo.users[user.ID] = user
	return user
}

func TestCreateIssuesWorkingTempPassword(t *testing.T) {
	svc, _ := newUserService(t)

	created, err := svc.Create(context.Background(), CreateUserInput{
		Email:     " Seamster@Workshop.example ",
		FirstName: "Ines",
		LastName:  "Moreau",
		Role:      enums.RoleWarehouse,
		ActorRole: enums.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.User.Email != "seamster@workshop.example" {
		t.Fatalf("email not normalized: %s", created.User.Email)
	}
	if len(created.TempPassword) != tempPasswordLength {
		t.Fatalf("temp password length = %d", len(created.TempPassword))
	}
	ok, err := security.VerifyPassword(created.TempPassword, created.User.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("temp password does not verify (ok=%v err=%v)", ok, err)
	}
}

func TestCreateRequiresManageCapability(t *testing.T) {
	svc, _ := newUserService(t)

	_, err := svc.Create(context.Background(), CreateUserInput{
		Email:     "worker@workshop.example",
		FirstName: "Ines",
		LastName:  "Moreau",
		Role:      enums.RoleWarehouse,
		ActorRole: enums.RoleWarehouse,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	svc, repo := newUserService(t)
	seedUser(t, repo, "taken@workshop.example", "irrelevant1", enums.RoleWarehouse)

	_, err := svc.Create(context.Background(), CreateUserInput{
		Email:     "taken@workshop.example",
		FirstName: "Ines",
		LastName:  "Moreau",
		Role:      enums.RoleWarehouse,
		ActorRole: enums.RoleAdmin,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthenticateMintsRoleBearingToken(t *testing.T) {
	svc, repo := newUserService(t)
	user := seedUser(t, repo, "lead@workshop.example", "sawdust-and-oak", enums.RoleAdmin)

	result, err := svc.Authenticate(context.Background(), AuthenticateInput{
		Email:    "lead@workshop.example",
		Password: "sawdust-and-oak",
	})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	claims, err := auth.ParseAccessToken(testJWTConfig, result.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.RoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestAuthenticateRejectionsLookIdentical(t *testing.T) {
	svc, repo := newUserService(t)
	dormant := seedUser(t, repo, "gone@workshop.example", "old-password-1", enums.RoleDelivery)
	dormant.IsActive = false
	seedUser(t, repo, "here@workshop.example", "right-password", enums.RoleDelivery)

	cases := []AuthenticateInput{
		{Email: "nobody@workshop.example", Password: "whatever-123"},
		{Email: "here@workshop.example", Password: "wrong-password"},
		{Email: "gone@workshop.example", Password: "old-password-1"},
	}
	for _, input := range cases {
		_, err := svc.Authenticate(context.Background(), input)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("%s: expected unauthorized, got %v", input.Email, err)
		}
		if typed.Message() != "invalid credentials" {
			t.Fatalf("%s: rejection message leaks cause: %s", input.Email, typed.Message())
		}
	}
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	svc, repo := newUserService(t)
	user := seedUser(t, repo, "lead@workshop.example", "first-password", enums.RoleAdmin)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, ChangePasswordInput{
		UserID:          user.ID,
		CurrentPassword: "not-the-password",
		NewPassword:     "second-password",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	if err := svc.ChangePassword(ctx, ChangePasswordInput{
		UserID:          user.ID,
		CurrentPassword: "first-password",
		NewPassword:     "second-password",
	}); err != nil {
		t.Fatalf("change password: %v", err)
	}
	ok, err := security.VerifyPassword("second-password", repo.users[user.ID].PasswordHash)
	if err != nil || !ok {
		t.Fatalf("new password does not verify (ok=%v err=%v)", ok, err)
	}
}

func TestSetRoleGatedAndIdempotent(t *testing.T) {
	svc, repo := newUserService(t)
	user := seedUser(t, repo, "mover@workshop.example", "password-123", enums.RoleDelivery)
	ctx := context.Background()

	err := svc.SetRole(ctx, SetRoleInput{UserID: user.ID, Role: enums.RoleAdmin, ActorRole: enums.RoleWarehouse})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	if err := svc.SetRole(ctx, SetRoleInput{UserID: user.ID, Role: enums.RoleWarehouse, ActorRole: enums.RoleOwner}); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if repo.users[user.ID].Role != enums.RoleWarehouse {
		t.Fatalf("role = %s", repo.users[user.ID].Role)
	}
}

func TestDeactivateBlocksLogin(t *testing.T) {
	svc, repo := newUserService(t)
	user := seedUser(t, repo, "former@workshop.example", "password-123", enums.RoleWarehouse)
	ctx := context.Background()

	if err := svc.Deactivate(ctx, ToggleInput{UserID: user.ID, ActorRole: enums.RoleOwner}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err := svc.Authenticate(ctx, AuthenticateInput{Email: "former@workshop.example", Password: "password-123"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	if err := svc.Reactivate(ctx, ToggleInput{UserID: user.ID, ActorRole: enums.RoleOwner}); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if _, err := svc.Authenticate(ctx, AuthenticateInput{Email: "former@workshop.example", Password: "password-123"}); err != nil {
		t.Fatalf("authenticate after reactivate: %v", err)
	}
}
