package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakandloom/workshop-backend/api/middleware"
	"github.com/oakandloom/workshop-backend/api/responses"
	"github.com/oakandloom/workshop-backend/api/validators"
	"github.com/oakandloom/workshop-backend/internal/allocation"
	pkgerrors "github.com/oakandloom/workshop-backend/pkg/errors"
	"github.com/oakandloom/workshop-backend/pkg/logger"
)

type addRequirementRequest struct {
	MaterialID uuid.UUID       `json:"material_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// AddTaskRequirement registers a material requirement against a task.
func AddTaskRequirement(svc allocation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation service unavailable"))
			return
		}

		taskID, err := validators.ParsePathUUID(chi.URLParam(r, "taskId"), "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body addRequirementRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requirement, err := svc.AddRequirement(r.Context(), allocation.AddRequirementInput{
			TaskID:     taskID,
			MaterialID: body.MaterialID,
			Quantity:   body.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, requirement)
	}
}

// AllocateTaskMaterial reserves stock for one requirement. Insufficient
// stock comes back as a result, not an error.
func AllocateTaskMaterial(svc allocation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation service unavailable"))
			return
		}

		requirementID, err := validators.ParsePathUUID(chi.URLParam(r, "requirementId"), "requirementId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Allocate(r.Context(), allocation.AllocateInput{
			TaskMaterialID: requirementID,
			ActorID:        middleware.UserIDFromContext(r.Context()),
			ActorRole:      string(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListTaskRequirements returns a task's material requirements.
func ListTaskRequirements(svc allocation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation service unavailable"))
			return
		}

		taskID, err := validators.ParsePathUUID(chi.URLParam(r, "taskId"), "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requirements, err := svc.ListForTask(r.Context(), taskID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, requirements)
	}
}
