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

const maxPageSize = 200

type createMaterialRequest struct {
	Name          string          `json:"name" validate:"required"`
	CategoryID    *uuid.UUID      `json:"category_id"`
	Description   *string         `json:"description"`
	Unit          string          `json:"unit" validate:"required"`
	InitialStock  decimal.Decimal `json:"initial_stock"`
	MinimumStock  decimal.Decimal `json:"minimum_stock"`
	IdealStock    decimal.Decimal `json:"ideal_stock"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit"`
	IsCustomOrder bool            `json:"is_custom_order"`
	LeadTimeDays  int             `json:"lead_time_days"`
}

// CreateMaterial registers a material, optionally seeding opening stock.
func CreateMaterial(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		var body createMaterialRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unit, err := enums.ParseMaterialUnit(body.Unit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit"))
			return
		}

		material, err := svc.CreateMaterial(r.Context(), stock.CreateMaterialInput{
			Name:          body.Name,
			CategoryID:    body.CategoryID,
			Description:   body.Description,
			Unit:          unit,
			InitialStock:  body.InitialStock,
			MinimumStock:  body.MinimumStock,
			IdealStock:    body.IdealStock,
			CostPerUnit:   body.CostPerUnit,
			IsCustomOrder: body.IsCustomOrder,
			LeadTimeDays:  body.LeadTimeDays,
			ActorID:       middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, material)
	}
}

type updateMaterialRequest struct {
	Name         *string          `json:"name"`
	CategoryID   *uuid.UUID       `json:"category_id"`
	Description  *string          `json:"description"`
	MinimumStock *decimal.Decimal `json:"minimum_stock"`
	IdealStock   *decimal.Decimal `json:"ideal_stock"`
	CostPerUnit  *decimal.Decimal `json:"cost_per_unit"`
	LeadTimeDays *int             `json:"lead_time_days"`
}

// UpdateMaterial edits metadata and thresholds. Stock levels only move
// through the ledger.
func UpdateMaterial(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		materialID, err := validators.ParsePathUUID(chi.URLParam(r, "materialId"), "materialId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateMaterialRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		material, err := svc.UpdateMaterial(r.Context(), stock.UpdateMaterialInput{
			MaterialID:   materialID,
			Name:         body.Name,
			CategoryID:   body.CategoryID,
			Description:  body.Description,
			MinimumStock: body.MinimumStock,
			IdealStock:   body.IdealStock,
			CostPerUnit:  body.CostPerUnit,
			LeadTimeDays: body.LeadTimeDays,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, material)
	}
}

// DeactivateMaterial retires a material from active inventory.
func DeactivateMaterial(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		materialID, err := validators.ParsePathUUID(chi.URLParam(r, "materialId"), "materialId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeactivateMaterial(r.Context(), materialID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// GetMaterial returns one material.
func GetMaterial(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		materialID, err := validators.ParsePathUUID(chi.URLParam(r, "materialId"), "materialId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		material, err := svc.GetMaterial(r.Context(), materialID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, material)
	}
}

// ListMaterials returns a paginated material listing.
func ListMaterials(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		params := stock.ListMaterialsParams{Cursor: r.URL.Query().Get("cursor")}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit

		categoryID, err := validators.ParseQueryUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.CategoryID = categoryID

		if params.ActiveOnly, err = validators.ParseQueryBool(r, "activeOnly"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.LowStockOnly, err = validators.ParseQueryBool(r, "lowStockOnly"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMaterials(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
