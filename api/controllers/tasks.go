package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakandloom/workshop-backend/api/middleware"
	"github.com/oakandloom/workshop-backend/api/responses"
	"github.com/oakandloom/workshop-backend/api/validators"
	"github.com/oakandloom/workshop-backend/internal/tasks"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	pkgerrors "github.com/oakandloom/workshop-backend/pkg/errors"
	"github.com/oakandloom/workshop-backend/pkg/logger"
)

type createTaskTypeRequest struct {
	Name                 string  `json:"name" validate:"required"`
	Description          *string `json:"description"`
	DefaultDurationHours int     `json:"default_duration_hours"`
	SequenceOrder        int     `json:"sequence_order"`
	RequiresMaterials    bool    `json:"requires_materials"`
}

// CreateTaskType registers a task kind in the catalog.
func CreateTaskType(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}

		var body createTaskTypeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		taskType, err := svc.CreateType(r.Context(), tasks.CreateTypeInput{
			Name:                 body.Name,
			Description:          body.Description,
			DefaultDurationHours: body.DefaultDurationHours,
			SequenceOrder:        body.SequenceOrder,
			RequiresMaterials:    body.RequiresMaterials,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, taskType)
	}
}

// ListTaskTypes returns the task catalog.
func ListTaskTypes(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}

		activeOnly, err := validators.ParseQueryBool(r, "activeOnly")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		types, err := svc.ListTypes(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types)
	}
}

type createTaskRequest struct {
	Title          string          `json:"title" validate:"required"`
	Detail         *string         `json:"detail"`
	TypeID         *uuid.UUID      `json:"type_id"`
	OrderID        *uuid.UUID      `json:"order_id"`
	AssignedToID   uuid.UUID       `json:"assigned_to_id" validate:"required"`
	Priority       string          `json:"priority"`
	EstimatedHours decimal.Decimal `json:"estimated_hours"`
	DueDate        *time.Time      `json:"due_date"`
}

// CreateTask assigns a unit of work to a worker.
func CreateTask(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}

		var body createTaskRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priority := enums.TaskPriorityNormal
		if body.Priority != "" {
			parsed, err := enums.ParseTaskPriority(body.Priority)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority"))
				return
			}
			priority = parsed
		}

		task, err := svc.Create(r.Context(), tasks.CreateTaskInput{
			Title:          body.Title,
			Detail:         body.Detail,
			TypeID:         body.TypeID,
			OrderID:        body.OrderID,
			AssignedToID:   body.AssignedToID,
			Priority:       priority,
			EstimatedHours: body.EstimatedHours,
			DueDate:        body.DueDate,
			ActorID:        middleware.UserIDFromContext(r.Context()),
			ActorRole:      middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, task)
	}
}

// GetTask returns one task.
func GetTask(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}

		taskID, err := validators.ParsePathUUID(chi.URLParam(r, "taskId"), "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		task, err := svc.Get(r.Context(), taskID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, task)
	}
}

// ListTasks returns tasks, filterable by assignee, order, and status.
func ListTasks(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}

		params := tasks.ListParams{Cursor: r.URL.Query().Get("cursor")}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit

		if params.AssignedToID, err = validators.ParseQueryUUID(r, "assignedTo"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.OrderID, err = validators.ParseQueryUUID(r, "orderId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseTaskStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid task status"))
				return
			}
			params.Status = &status
		}

		list, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// StartTask moves an assigned task into work.
func StartTask(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return taskTransitionHandler(svc, logg, "started", func(r *http.Request, input tasks.TransitionInput) error {
		return svc.Start(r.Context(), input)
	})
}

// ResumeTask picks a paused task back up.
func ResumeTask(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return taskTransitionHandler(svc, logg, "resumed", func(r *http.Request, input tasks.TransitionInput) error {
		return svc.Resume(r.Context(), input)
	})
}

// ApproveTask accepts completed work.
func ApproveTask(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return taskTransitionHandler(svc, logg, "approved", func(r *http.Request, input tasks.TransitionInput) error {
		return svc.Approve(r.Context(), input)
	})
}

// CancelTask abandons a task.
func CancelTask(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return taskTransitionHandler(svc, logg, "cancelled", func(r *http.Request, input tasks.TransitionInput) error {
		return svc.Cancel(r.Context(), input)
	})
}

func taskTransitionHandler(svc tasks.Service, logg *logger.Logger, status string, transition func(*http.Request, tasks.TransitionInput) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}

		taskID, err := validators.ParsePathUUID(chi.URLParam(r, "taskId"), "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		err = transition(r, tasks.TransitionInput{
			TaskID:    taskID,
			ActorID:   middleware.UserIDFromContext(r.Context()),
			ActorRole: middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": status})
	}
}

type pauseTaskRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// PauseTask stops the clock with a recorded reason.
func PauseTask(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}

		taskID, err := validators.ParsePathUUID(chi.URLParam(r, "taskId"), "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body pauseTaskRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Pause(r.Context(), tasks.PauseInput{
			TaskID:    taskID,
			Reason:    body.Reason,
			ActorID:   middleware.UserIDFromContext(r.Context()),
			ActorRole: middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "paused"})
	}
}

type completeTaskRequest struct {
	Notes *string `json:"notes"`
}

// CompleteTask finishes work and submits it for review.
func CompleteTask(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}

		taskID, err := validators.ParsePathUUID(chi.URLParam(r, "taskId"), "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body completeTaskRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Complete(r.Context(), tasks.CompleteInput{
			TaskID:    taskID,
			Notes:     body.Notes,
			ActorID:   middleware.UserIDFromContext(r.Context()),
			ActorRole: middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "completed"})
	}
}

type rejectTaskRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// RejectTask sends completed work back for rework.
func RejectTask(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}

		taskID, err := validators.ParsePathUUID(chi.URLParam(r, "taskId"), "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body rejectTaskRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Reject(r.Context(), tasks.RejectInput{
			TaskID:    taskID,
			Reason:    body.Reason,
			ActorID:   middleware.UserIDFromContext(r.Context()),
			ActorRole: middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "rejected"})
	}
}

type addTaskNoteRequest struct {
	NoteType string `json:"note_type"`
	Body     string `json:"body" validate:"required"`
}

// AddTaskNote appends a free-form note to a task.
func AddTaskNote(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}

		taskID, err := validators.ParsePathUUID(chi.URLParam(r, "taskId"), "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body addTaskNoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		noteType := enums.TaskNoteTypeGeneral
		if body.NoteType != "" {
			noteType = enums.TaskNoteType(body.NoteType)
			if !noteType.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid note type"))
				return
			}
		}

		note, err := svc.AddNote(r.Context(), tasks.AddNoteInput{
			TaskID:   taskID,
			NoteType: noteType,
			Body:     body.Body,
			ActorID:  middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, note)
	}
}

// ListTaskNotes returns a task's notes.
func ListTaskNotes(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}

		taskID, err := validators.ParsePathUUID(chi.URLParam(r, "taskId"), "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		notes, err := svc.ListNotes(r.Context(), taskID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, notes)
	}
}
