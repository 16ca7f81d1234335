package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakandloom/workshop-backend/internal/notifications"
	"github.com/oakandloom/workshop-backend/internal/queue"
	"github.com/oakandloom/workshop-backend/internal/users"
	pkgauth "github.com/oakandloom/workshop-backend/pkg/auth"
	"github.com/oakandloom/workshop-backend/pkg/config"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	"github.com/oakandloom/workshop-backend/pkg/logger"
	"github.com/oakandloom/workshop-backend/pkg/db/models"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubUsersService struct{}

func (stubUsersService) Create(ctx context.Context, input users.CreateUserInput) (*users.CreatedUser, error) {
	return &users.CreatedUser{User: &models.User{}, TempPassword: "temp"}, nil
}

func (stubUsersService) Authenticate(ctx context.Context, input users.AuthenticateInput) (*users.AuthResult, error) {
	return &users.AuthResult{
		User:        &models.User{Email: input.Email, Role: enums.RoleOwner},
		AccessToken: "token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func (stubUsersService) ChangePassword(ctx context.Context, input users.ChangePasswordInput) error {
	return nil
}

func (stubUsersService) SetRole(ctx context.Context, input users.SetRoleInput) error { return nil }

func (stubUsersService) Deactivate(ctx context.Context, input users.ToggleInput) error { return nil }

func (stubUsersService) Reactivate(ctx context.Context, input users.ToggleInput) error { return nil }

func (stubUsersService) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return &models.User{ID: userID}, nil
}

func (stubUsersService) List(ctx context.Context, params users.ListParams) ([]models.User, error) {
	return nil, nil
}

type stubQueueService struct{}

func (stubQueueService) AdmitTx(ctx context.Context, tx *gorm.DB, order *models.Order, actorID uuid.UUID, actorRole enums.Role) (*queue.Admission, error) {
	return &queue.Admission{}, nil
}

func (stubQueueService) Escalate(ctx context.Context, input queue.EscalateInput) error { return nil }

func (stubQueueService) List(ctx context.Context, limit int) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubQueueService) ListExpired(ctx context.Context) ([]models.Order, error) { return nil, nil }

func (stubQueueService) IsExpired(order *models.Order, now time.Time) bool { return false }

type stubNotificationsService struct{}

func (stubNotificationsService) Notify(ctx context.Context, input notifications.NotifyInput) error {
	return nil
}

func (stubNotificationsService) NotifyTx(ctx context.Context, tx *gorm.DB, input notifications.NotifyInput) error {
	return nil
}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return 3, nil
}

func (stubNotificationsService) HasUnread(ctx context.Context, params notifications.UnreadQuery) (bool, error) {
	return false, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(RouterParams{
		Config:        cfg,
		Logger:        logg,
		DB:            stubPinger{},
		Users:         stubUsersService{},
		Queue:         stubQueueService{},
		Notifications: stubNotificationsService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/unread-count", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestLoginIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"email":"owner@example.com","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for login got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUserAdminRequiresManageUsers(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	warehouse := httptest.NewRequest(http.MethodGet, "/api/v1/users/", nil)
	warehouse.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleWarehouse))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, warehouse)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for warehouse listing users got %d", resp.Code)
	}

	owner := httptest.NewRequest(http.MethodGet, "/api/v1/users/", nil)
	owner.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleOwner))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, owner)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner listing users got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestQueueViewOpenToAllRoles(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/queue/", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleDelivery))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for delivery viewing queue got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestEscalationIsOwnerOnly(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	target := "/api/v1/queue/" + uuid.NewString() + "/escalate"
	body := `{"reason":"customer deadline moved up"}`

	admin := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	admin.Header.Set("Content-Type", "application/json")
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin escalation got %d", resp.Code)
	}

	owner := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	owner.Header.Set("Content-Type", "application/json")
	owner.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleOwner))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, owner)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner escalation got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestNilServiceAnswersInternalNotPanic(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks/", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleOwner))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unwired service got %d", resp.Code)
	}
}

func TestUnreadCountWithToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/unread-count", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleDelivery))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for unread count got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"unread":3`) {
		t.Fatalf("expected unread count in body, got %s", resp.Body.String())
	}
}
