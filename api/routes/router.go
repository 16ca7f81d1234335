package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oakandloom/workshop-backend/api/controllers"
	"github.com/oakandloom/workshop-backend/api/middleware"
	"github.com/oakandloom/workshop-backend/internal/allocation"
	"github.com/oakandloom/workshop-backend/internal/notifications"
	"github.com/oakandloom/workshop-backend/internal/orders"
	"github.com/oakandloom/workshop-backend/internal/prediction"
	"github.com/oakandloom/workshop-backend/internal/queue"
	"github.com/oakandloom/workshop-backend/internal/stock"
	"github.com/oakandloom/workshop-backend/internal/tasks"
	"github.com/oakandloom/workshop-backend/internal/users"
	"github.com/oakandloom/workshop-backend/pkg/config"
	"github.com/oakandloom/workshop-backend/pkg/db"
	"github.com/oakandloom/workshop-backend/pkg/logger"
	"github.com/oakandloom/workshop-backend/pkg/redis"
	"github.com/oakandloom/workshop-backend/pkg/roles"
)

// RouterParams carries everything the HTTP surface needs. All services
// are required; nil services answer with an internal error instead of
// panicking.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis *redis.Client

	Users         users.Service
	Stock         stock.Service
	Tasks         tasks.Service
	Allocation    allocation.Service
	Orders        orders.Service
	Queue         queue.Service
	Prediction    prediction.Service
	Notifications notifications.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(p.Users, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/auth/me", controllers.AuthMe(p.Users, logg))
		r.Post("/auth/change-password", controllers.AuthChangePassword(p.Users, logg))

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireCapability(roles.CapManageUsers, logg))
			r.Post("/", controllers.CreateUser(p.Users, logg))
			r.Get("/", controllers.ListUsers(p.Users, logg))
			r.Get("/{userId}", controllers.GetUser(p.Users, logg))
			r.Put("/{userId}/role", controllers.SetUserRole(p.Users, logg))
			r.Post("/{userId}/deactivate", controllers.DeactivateUser(p.Users, logg))
			r.Post("/{userId}/reactivate", controllers.ReactivateUser(p.Users, logg))
		})

		r.Route("/materials", func(r chi.Router) {
			r.Get("/", controllers.ListMaterials(p.Stock, logg))
			r.Get("/{materialId}", controllers.GetMaterial(p.Stock, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(roles.CapManageStock, logg))
				r.Post("/", controllers.CreateMaterial(p.Stock, logg))
				r.Patch("/{materialId}", controllers.UpdateMaterial(p.Stock, logg))
				r.Post("/{materialId}/deactivate", controllers.DeactivateMaterial(p.Stock, logg))
			})
		})

		r.Route("/movements", func(r chi.Router) {
			r.Get("/", controllers.ListMovements(p.Stock, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(roles.CapManageStock, logg))
				r.Post("/", controllers.RecordMovement(p.Stock, logg))
				r.Post("/{movementId}/reverse", controllers.ReverseMovement(p.Stock, logg))
				r.Post("/{movementId}/amend", controllers.AmendMovement(p.Stock, logg))
			})
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", controllers.ListAlerts(p.Stock, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(roles.CapResolveAlerts, logg))
				r.Post("/{alertId}/acknowledge", controllers.AcknowledgeAlert(p.Stock, logg))
				r.Post("/{alertId}/resolve", controllers.ResolveAlert(p.Stock, logg))
			})
		})

		r.Route("/task-types", func(r chi.Router) {
			r.Get("/", controllers.ListTaskTypes(p.Tasks, logg))
			r.With(middleware.RequireCapability(roles.CapAssignTasks, logg)).
				Post("/", controllers.CreateTaskType(p.Tasks, logg))
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", controllers.ListTasks(p.Tasks, logg))
			r.Get("/{taskId}", controllers.GetTask(p.Tasks, logg))
			r.Get("/{taskId}/notes", controllers.ListTaskNotes(p.Tasks, logg))
			r.Post("/{taskId}/notes", controllers.AddTaskNote(p.Tasks, logg))
			r.Get("/{taskId}/materials", controllers.ListTaskRequirements(p.Allocation, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(roles.CapAssignTasks, logg))
				r.Post("/", controllers.CreateTask(p.Tasks, logg))
				r.Post("/{taskId}/cancel", controllers.CancelTask(p.Tasks, logg))
				r.Post("/{taskId}/materials", controllers.AddTaskRequirement(p.Allocation, logg))
				r.Post("/materials/{requirementId}/allocate", controllers.AllocateTaskMaterial(p.Allocation, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(roles.CapWorkTasks, logg))
				r.Post("/{taskId}/start", controllers.StartTask(p.Tasks, logg))
				r.Post("/{taskId}/pause", controllers.PauseTask(p.Tasks, logg))
				r.Post("/{taskId}/resume", controllers.ResumeTask(p.Tasks, logg))
				r.Post("/{taskId}/complete", controllers.CompleteTask(p.Tasks, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(roles.CapReviewTasks, logg))
				r.Post("/{taskId}/approve", controllers.ApproveTask(p.Tasks, logg))
				r.Post("/{taskId}/reject", controllers.RejectTask(p.Tasks, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(p.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(p.Orders, logg))
			r.Get("/number/{orderNumber}", controllers.GetOrderByNumber(p.Orders, logg))
			r.Get("/{orderId}/history", controllers.OrderHistory(p.Orders, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(roles.CapManageOrders, logg))
				r.Post("/", controllers.CreateOrder(p.Orders, logg))
				r.Put("/{orderId}/status", controllers.UpdateOrderStatus(p.Orders, logg))
				r.Delete("/{orderId}", controllers.DeleteOrder(p.Orders, logg))
			})

			// Payment, cancellation, and production moves carry their own
			// capability checks inside the service, since several roles
			// share them with different scopes.
			r.Put("/{orderId}/payment", controllers.SetOrderPayment(p.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(p.Orders, logg))
			r.Post("/{orderId}/production", controllers.AdvanceProduction(p.Orders, logg))
		})

		r.Route("/queue", func(r chi.Router) {
			r.With(middleware.RequireCapability(roles.CapViewQueue, logg)).
				Get("/", controllers.ListQueue(p.Queue, logg))
			r.With(middleware.RequireCapability(roles.CapEscalatePriority, logg)).
				Post("/{orderId}/escalate", controllers.EscalateOrder(p.Queue, logg))
		})

		r.Route("/predictions", func(r chi.Router) {
			r.Use(middleware.RequireCapability(roles.CapViewReports, logg))
			r.Get("/", controllers.ListPredictions(p.Prediction, logg))
			r.Get("/{materialId}", controllers.GetMaterialPrediction(p.Prediction, logg))
			r.Get("/{materialId}/history", controllers.MaterialPredictionHistory(p.Prediction, logg))
			r.Post("/recalculate", controllers.RecalculatePredictions(p.Prediction, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(p.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
		})
	})

	return r
}
