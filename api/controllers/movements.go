package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakandloom/workshop-backend/api/middleware"
	"github.com/oakandloom/workshop-backend/api/responses"
	"github.com/oakandloom/workshop-backend/api/validators"
	"github.com/oakandloom/workshop-backend/internal/stock"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	pkgerrors "github.com/oakandloom/workshop-backend/pkg/errors"
	"github.com/oakandloom/workshop-backend/pkg/logger"
)

type recordMovementRequest struct {
	MaterialID   uuid.UUID        `json:"material_id" validate:"required"`
	MovementType string           `json:"movement_type" validate:"required"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	Reference    *string          `json:"reference"`
	Notes        *string          `json:"notes"`
	OrderID      *uuid.UUID       `json:"order_id"`
	TaskID       *uuid.UUID       `json:"task_id"`
}

// RecordMovement appends a ledger entry and moves the material's stock.
func RecordMovement(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		var body recordMovementRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movementType, err := enums.ParseMovementType(body.MovementType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid movement type"))
			return
		}

		movement, err := svc.RecordMovement(r.Context(), stock.RecordMovementInput{
			MaterialID:   body.MaterialID,
			MovementType: movementType,
			Quantity:     body.Quantity,
			UnitCost:     body.UnitCost,
			Reference:    body.Reference,
			Notes:        body.Notes,
			OrderID:      body.OrderID,
			TaskID:       body.TaskID,
			ActorID:      middleware.UserIDFromContext(r.Context()),
			ActorRole:    string(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

type reverseMovementRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ReverseMovement records a compensating entry for a prior movement.
func ReverseMovement(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		movementID, err := validators.ParsePathUUID(chi.URLParam(r, "movementId"), "movementId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body reverseMovementRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.ReverseMovement(r.Context(), stock.ReverseMovementInput{
			MovementID: movementID,
			Reason:     body.Reason,
			ActorID:    middleware.UserIDFromContext(r.Context()),
			ActorRole:  string(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

type amendMovementRequest struct {
	MovementType string           `json:"movement_type" validate:"required"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	Notes        *string          `json:"notes"`
	Reason       string           `json:"reason" validate:"required"`
}

// AmendMovement replaces a prior entry's effect with corrected values.
func AmendMovement(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		movementID, err := validators.ParsePathUUID(chi.URLParam(r, "movementId"), "movementId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body amendMovementRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movementType, err := enums.ParseMovementType(body.MovementType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid movement type"))
			return
		}

		movement, err := svc.AmendMovement(r.Context(), stock.AmendMovementInput{
			MovementID:   movementID,
			MovementType: movementType,
			Quantity:     body.Quantity,
			UnitCost:     body.UnitCost,
			Notes:        body.Notes,
			Reason:       body.Reason,
			ActorID:      middleware.UserIDFromContext(r.Context()),
			ActorRole:    string(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

// ListMovements returns the ledger, filterable by material, order, or task.
func ListMovements(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		params := stock.ListMovementsParams{Cursor: r.URL.Query().Get("cursor")}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit

		if params.MaterialID, err = validators.ParseQueryUUID(r, "materialId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.OrderID, err = validators.ParseQueryUUID(r, "orderId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.TaskID, err = validators.ParseQueryUUID(r, "taskId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMovements(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
