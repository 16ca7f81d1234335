package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oakandloom/workshop-backend/internal/notifications"
	"github.com/oakandloom/workshop-backend/pkg/db"
	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	pkgerrors "github.com/oakandloom/workshop-backend/pkg/errors"
	"github.com/oakandloom/workshop-backend/pkg/logger"
	"github.com/oakandloom/workshop-backend/pkg/metrics"
	"github.com/oakandloom/workshop-backend/pkg/outbox"
	"github.com/oakandloom/workshop-backend/pkg/outbox/payloads"
	"github.com/oakandloom/workshop-backend/pkg/pagination"
	"github.com/oakandloom/workshop-backend/pkg/roles"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type notifier interface {
	NotifyTx(ctx context.Context, tx *gorm.DB, input notifications.NotifyInput) error
}

// Service drives the task lifecycle. Work transitions (start, pause, resume,
// complete) belong to the assignee; review transitions (approve, reject) to
// reviewers or the assigner.
type Service interface {
	CreateType(ctx context.Context, input CreateTypeInput) (*models.TaskType, error)
	ListTypes(ctx context.Context, activeOnly bool) ([]models.TaskType, error)
	Create(ctx context.Context, input CreateTaskInput) (*models.Task, error)
	Get(ctx context.Context, taskID uuid.UUID) (*models.Task, error)
	List(ctx context.Context, params ListParams) (*TaskList, error)
	Start(ctx context.Context, input TransitionInput) error
	Pause(ctx context.Context, input PauseInput) error
	Resume(ctx context.Context, input TransitionInput) error
	Complete(ctx context.Context, input CompleteInput) error
	Approve(ctx context.Context, input TransitionInput) error
	Reject(ctx context.Context, input RejectInput) error
	Cancel(ctx context.Context, input TransitionInput) error
	AddNote(ctx context.Context, input AddNoteInput) (*models.TaskNote, error)
	ListNotes(ctx context.Context, taskID uuid.UUID) ([]models.TaskNote, error)
	ListOverdue(ctx context.Context, limit int) ([]models.Task, error)
	CountOverdue(ctx context.Context) (int64, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	notifier notifier
	metrics  *metrics.WorkshopMetrics
	logg     *logger.Logger
}

// CreateTypeInput registers a task kind in the catalog.
type CreateTypeInput struct {
	Name                 string
	Description          *string
	DefaultDurationHours int
	SequenceOrder        int
	RequiresMaterials    bool
}

// CreateTaskInput assigns a unit of work to a worker.
type CreateTaskInput struct {
	Title          string
	Detail         *string
	TypeID         *uuid.UUID
	OrderID        *uuid.UUID
	AssignedToID   uuid.UUID
	Priority       enums.TaskPriority
	EstimatedHours decimal.Decimal
	DueDate        *time.Time
	ActorID        uuid.UUID
	ActorRole      enums.Role
}

// TransitionInput identifies the task and the acting user for a transition.
type TransitionInput struct {
	TaskID    uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.Role
}

// PauseInput pauses work with a reason recorded as a note.
type PauseInput struct {
	TaskID    uuid.UUID
	Reason    string
	ActorID   uuid.UUID
	ActorRole enums.Role
}

// CompleteInput finishes work, optionally with a closing note.
type CompleteInput struct {
	TaskID    uuid.UUID
	Notes     *string
	ActorID   uuid.UUID
	ActorRole enums.Role
}

// RejectInput sends completed work back for rework.
type RejectInput struct {
	TaskID    uuid.UUID
	Reason    string
	ActorID   uuid.UUID
	ActorRole enums.Role
}

// AddNoteInput appends a free-form note.
type AddNoteInput struct {
	TaskID   uuid.UUID
	NoteType enums.TaskNoteType
	Body     string
	ActorID  uuid.UUID
}

// ListParams configures task listing.
type ListParams struct {
	AssignedToID *uuid.UUID
	OrderID      *uuid.UUID
	Status       *enums.TaskStatus
	Limit        int
	Cursor       string
}

// TaskList wraps a page of tasks.
type TaskList struct {
	Items  []models.Task `json:"items"`
	Cursor string        `json:"cursor"`
}

// NewService wires the task state machine dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, notifySvc notifier, workshopMetrics *metrics.WorkshopMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tasks repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if notifySvc == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		notifier: notifySvc,
		metrics:  workshopMetrics,
		logg:     logg,
	}, nil
}

func (s *service) CreateType(ctx context.Context, input CreateTypeInput) (*models.TaskType, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task type name required")
	}
	duration := input.DefaultDurationHours
	if duration <= 0 {
		duration = 4
	}
	taskType := &models.TaskType{
		Name:                 input.Name,
		Description:          input.Description,
		DefaultDurationHours: duration,
		SequenceOrder:        input.SequenceOrder,
		RequiresMaterials:    input.RequiresMaterials,
		IsActive:             true,
	}
	if err := s.repo.CreateType(ctx, taskType); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create task type")
	}
	return taskType, nil
}

func (s *service) ListTypes(ctx context.Context, activeOnly bool) ([]models.TaskType, error) {
	types, err := s.repo.ListTypes(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list task types")
	}
	return types, nil
}

func (s *service) Create(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task title required")
	}
	if input.AssignedToID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignee required")
	}
	if !roles.Can(input.ActorRole, roles.CapAssignTasks) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot assign tasks")
	}

	priority := input.Priority
	if !priority.IsValid() {
		priority = enums.TaskPriorityNormal
	}

	task := &models.Task{
		Title:          input.Title,
		Detail:         input.Detail,
		TypeID:         input.TypeID,
		OrderID:        input.OrderID,
		AssignedToID:   input.AssignedToID,
		Status:         enums.TaskStatusAssigned,
		Priority:       priority,
		EstimatedHours: input.EstimatedHours,
		DueDate:        input.DueDate,
	}
	if input.ActorID != uuid.Nil {
		actorID := input.ActorID
		task.AssignedByID = &actorID
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.TypeID != nil {
			taskType, err := repo.FindType(ctx, *input.TypeID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "task type not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task type")
			}
			if task.EstimatedHours.IsZero() {
				task.EstimatedHours = decimal.NewFromInt(int64(taskType.DefaultDurationHours))
			}
		}
		if err := repo.CreateTask(ctx, task); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create task")
		}

		s.notify(ctx, tx, notifications.NotifyInput{
			RecipientID: task.AssignedToID,
			Kind:        enums.NotificationKindTaskAssigned,
			Priority:    notificationPriority(task.Priority),
			Title:       "New task assigned",
			Message:     fmt.Sprintf("You have been assigned: %s", task.Title),
			TaskID:      &task.ID,
			OrderID:     task.OrderID,
		})
		return s.emitLifecycle(ctx, tx, task, enums.EventTaskAssigned, "", enums.TaskStatusAssigned, input.ActorID, input.ActorRole, "")
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTaskTransition(string(enums.TaskStatusAssigned))
	return task, nil
}

func (s *service) Get(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	if taskID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id required")
	}
	task, err := s.repo.FindTask(ctx, taskID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task")
	}
	return task, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*TaskList, error) {
	query := listTasksParams{
		AssignedToID: params.AssignedToID,
		OrderID:      params.OrderID,
		Status:       params.Status,
		Limit:        params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListTasks(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tasks")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &TaskList{Items: rows, Cursor: cursor}, nil
}

func (s *service) Start(ctx context.Context, input TransitionInput) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		task, err := s.loadForAssignee(ctx, repo, input.TaskID, input.ActorID)
		if err != nil {
			return err
		}
		if task.Status != enums.TaskStatusAssigned {
			return transitionRejected(task.Status, enums.TaskStatusStarted)
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":     enums.TaskStatusStarted,
			"started_at": gorm.Expr("COALESCE(started_at, ?)", now),
		}
		affected, err := repo.UpdateTaskGuarded(ctx, task.ID, []enums.TaskStatus{enums.TaskStatusAssigned}, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start task")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "task transitioned concurrently")
		}

		if err := s.openSession(ctx, repo, task, now); err != nil {
			return err
		}

		s.metrics.IncTaskTransition(string(enums.TaskStatusStarted))
		return s.emitLifecycle(ctx, tx, task, enums.EventTaskStarted, task.Status, enums.TaskStatusStarted, input.ActorID, input.ActorRole, "")
	})
}

func (s *service) Pause(ctx context.Context, input PauseInput) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		task, err := s.loadForAssignee(ctx, repo, input.TaskID, input.ActorID)
		if err != nil {
			return err
		}
		if task.Status != enums.TaskStatusStarted {
			return transitionRejected(task.Status, enums.TaskStatusPaused)
		}

		now := time.Now().UTC()
		duration, err := s.closeOpenSession(ctx, repo, task.ID, now)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"status":               enums.TaskStatusPaused,
			"total_worked_seconds": gorm.Expr("total_worked_seconds + ?", duration),
		}
		affected, err := repo.UpdateTaskGuarded(ctx, task.ID, []enums.TaskStatus{enums.TaskStatusStarted}, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pause task")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "task transitioned concurrently")
		}

		if input.Reason != "" {
			note := &models.TaskNote{
				TaskID:   task.ID,
				AuthorID: input.ActorID,
				NoteType: enums.TaskNoteTypePause,
				Body:     input.Reason,
			}
			if err := repo.CreateNote(ctx, note); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record pause note")
			}
		}

		s.metrics.IncTaskTransition(string(enums.TaskStatusPaused))
		return s.emitLifecycle(ctx, tx, task, enums.EventTaskPaused, task.Status, enums.TaskStatusPaused, input.ActorID, input.ActorRole, input.Reason)
	})
}

func (s *service) Resume(ctx context.Context, input TransitionInput) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		task, err := s.loadForAssignee(ctx, repo, input.TaskID, input.ActorID)
		if err != nil {
			return err
		}
		if task.Status != enums.TaskStatusPaused {
			return transitionRejected(task.Status, enums.TaskStatusStarted)
		}

		now := time.Now().UTC()
		affected, err := repo.UpdateTaskGuarded(ctx, task.ID, []enums.TaskStatus{enums.TaskStatusPaused}, map[string]any{
			"status": enums.TaskStatusStarted,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resume task")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "task transitioned concurrently")
		}

		if err := s.openSession(ctx, repo, task, now); err != nil {
			return err
		}

		s.metrics.IncTaskTransition(string(enums.TaskStatusStarted))
		return s.emitLifecycle(ctx, tx, task, enums.EventTaskResumed, task.Status, enums.TaskStatusStarted, input.ActorID, input.ActorRole, "")
	})
}

func (s *service) Complete(ctx context.Context, input CompleteInput) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		task, err := s.loadForAssignee(ctx, repo, input.TaskID, input.ActorID)
		if err != nil {
			return err
		}
		if task.Status != enums.TaskStatusStarted && task.Status != enums.TaskStatusPaused {
			return transitionRejected(task.Status, enums.TaskStatusCompleted)
		}

		now := time.Now().UTC()
		duration := int64(0)
		if task.Status == enums.TaskStatusStarted {
			duration, err = s.closeOpenSession(ctx, repo, task.ID, now)
			if err != nil {
				return err
			}
		}

		// Reworked tasks go back through review explicitly.
		target := enums.TaskStatusCompleted
		if task.RejectionCount > 0 {
			target = enums.TaskStatusReviewNeeded
		}

		updates := map[string]any{
			"status":               target,
			"completed_at":         now,
			"total_worked_seconds": gorm.Expr("total_worked_seconds + ?", duration),
		}
		affected, err := repo.UpdateTaskGuarded(ctx, task.ID, []enums.TaskStatus{enums.TaskStatusStarted, enums.TaskStatusPaused}, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete task")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "task transitioned concurrently")
		}

		if input.Notes != nil && *input.Notes != "" {
			note := &models.TaskNote{
				TaskID:   task.ID,
				AuthorID: input.ActorID,
				NoteType: enums.TaskNoteTypeCompletion,
				Body:     *input.Notes,
			}
			if err := repo.CreateNote(ctx, note); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record completion note")
			}
		}

		if task.AssignedByID != nil {
			s.notify(ctx, tx, notifications.NotifyInput{
				RecipientID: *task.AssignedByID,
				Kind:        enums.NotificationKindTaskCompleted,
				Title:       "Task completed",
				Message:     fmt.Sprintf("%s is ready for review", task.Title),
				TaskID:      &task.ID,
				OrderID:     task.OrderID,
			})
		}

		s.metrics.IncTaskTransition(string(target))
		return s.emitLifecycle(ctx, tx, task, enums.EventTaskCompleted, task.Status, target, input.ActorID, input.ActorRole, "")
	})
}

func (s *service) Approve(ctx context.Context, input TransitionInput) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		task, err := s.loadForReviewer(ctx, repo, input.TaskID, input.ActorID, input.ActorRole)
		if err != nil {
			return err
		}
		if task.Status != enums.TaskStatusCompleted && task.Status != enums.TaskStatusReviewNeeded {
			return transitionRejected(task.Status, enums.TaskStatusApproved)
		}

		now := time.Now().UTC()
		affected, err := repo.UpdateTaskGuarded(ctx, task.ID,
			[]enums.TaskStatus{enums.TaskStatusCompleted, enums.TaskStatusReviewNeeded},
			map[string]any{
				"status":      enums.TaskStatusApproved,
				"approved_at": now,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve task")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "task transitioned concurrently")
		}

		s.notify(ctx, tx, notifications.NotifyInput{
			RecipientID: task.AssignedToID,
			Kind:        enums.NotificationKindTaskApproved,
			Title:       "Task approved",
			Message:     fmt.Sprintf("%s was approved", task.Title),
			TaskID:      &task.ID,
			OrderID:     task.OrderID,
		})

		s.metrics.IncTaskTransition(string(enums.TaskStatusApproved))
		return s.emitLifecycle(ctx, tx, task, enums.EventTaskApproved, task.Status, enums.TaskStatusApproved, input.ActorID, input.ActorRole, "")
	})
}

func (s *service) Reject(ctx context.Context, input RejectInput) error {
	if input.Reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		task, err := s.loadForReviewer(ctx, repo, input.TaskID, input.ActorID, input.ActorRole)
		if err != nil {
			return err
		}
		if task.Status != enums.TaskStatusCompleted && task.Status != enums.TaskStatusReviewNeeded {
			return transitionRejected(task.Status, enums.TaskStatusRejected)
		}

		// Rejected work reopens for rework rather than parking terminally.
		affected, err := repo.UpdateTaskGuarded(ctx, task.ID,
			[]enums.TaskStatus{enums.TaskStatusCompleted, enums.TaskStatusReviewNeeded},
			map[string]any{
				"status":           enums.TaskStatusAssigned,
				"completed_at":     nil,
				"rejection_reason": input.Reason,
				"rejection_count":  gorm.Expr("rejection_count + 1"),
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject task")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "task transitioned concurrently")
		}

		note := &models.TaskNote{
			TaskID:   task.ID,
			AuthorID: input.ActorID,
			NoteType: enums.TaskNoteTypeRejection,
			Body:     input.Reason,
		}
		if err := repo.CreateNote(ctx, note); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record rejection note")
		}

		s.notify(ctx, tx, notifications.NotifyInput{
			RecipientID: task.AssignedToID,
			Kind:        enums.NotificationKindTaskRejected,
			Priority:    enums.NotificationPriorityHigh,
			Title:       "Task rejected",
			Message:     fmt.Sprintf("%s was rejected: %s", task.Title, input.Reason),
			TaskID:      &task.ID,
			OrderID:     task.OrderID,
		})

		s.metrics.IncTaskTransition(string(enums.TaskStatusRejected))
		return s.emitLifecycle(ctx, tx, task, enums.EventTaskRejected, task.Status, enums.TaskStatusAssigned, input.ActorID, input.ActorRole, input.Reason)
	})
}

func (s *service) Cancel(ctx context.Context, input TransitionInput) error {
	if !roles.Can(input.ActorRole, roles.CapAssignTasks) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot cancel tasks")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		task, err := s.loadTask(ctx, repo, input.TaskID)
		if err != nil {
			return err
		}
		if task.Status.IsTerminal() {
			return transitionRejected(task.Status, enums.TaskStatusCancelled)
		}

		now := time.Now().UTC()
		duration := int64(0)
		if task.Status == enums.TaskStatusStarted {
			duration, err = s.closeOpenSession(ctx, repo, task.ID, now)
			if err != nil {
				return err
			}
		}

		fromStatuses := []enums.TaskStatus{
			enums.TaskStatusAssigned,
			enums.TaskStatusStarted,
			enums.TaskStatusPaused,
			enums.TaskStatusCompleted,
			enums.TaskStatusReviewNeeded,
		}
		affected, err := repo.UpdateTaskGuarded(ctx, task.ID, fromStatuses, map[string]any{
			"status":               enums.TaskStatusCancelled,
			"total_worked_seconds": gorm.Expr("total_worked_seconds + ?", duration),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel task")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "task transitioned concurrently")
		}

		s.metrics.IncTaskTransition(string(enums.TaskStatusCancelled))
		return s.emitLifecycle(ctx, tx, task, enums.EventTaskCancelled, task.Status, enums.TaskStatusCancelled, input.ActorID, input.ActorRole, "")
	})
}

func (s *service) AddNote(ctx context.Context, input AddNoteInput) (*models.TaskNote, error) {
	if input.TaskID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id required")
	}
	if input.Body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note body required")
	}
	noteType := input.NoteType
	if !noteType.IsValid() {
		noteType = enums.TaskNoteTypeGeneral
	}

	if _, err := s.loadTask(ctx, s.repo, input.TaskID); err != nil {
		return nil, err
	}
	note := &models.TaskNote{
		TaskID:   input.TaskID,
		AuthorID: input.ActorID,
		NoteType: noteType,
		Body:     input.Body,
	}
	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create note")
	}
	return note, nil
}

func (s *service) ListNotes(ctx context.Context, taskID uuid.UUID) ([]models.TaskNote, error) {
	if taskID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id required")
	}
	notes, err := s.repo.ListNotes(ctx, taskID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notes")
	}
	return notes, nil
}

func (s *service) ListOverdue(ctx context.Context, limit int) ([]models.Task, error) {
	tasks, err := s.repo.ListOverdue(ctx, time.Now().UTC(), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overdue tasks")
	}
	return tasks, nil
}

func (s *service) CountOverdue(ctx context.Context) (int64, error) {
	count, err := s.repo.CountOverdue(ctx, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count overdue tasks")
	}
	return count, nil
}

func (s *service) loadTask(ctx context.Context, repo Repository, taskID uuid.UUID) (*models.Task, error) {
	if taskID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id required")
	}
	task, err := repo.FindTask(ctx, taskID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task")
	}
	return task, nil
}

func (s *service) loadForAssignee(ctx context.Context, repo Repository, taskID, actorID uuid.UUID) (*models.Task, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	task, err := s.loadTask(ctx, repo, taskID)
	if err != nil {
		return nil, err
	}
	if task.AssignedToID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "task belongs to another worker")
	}
	return task, nil
}

func (s *service) loadForReviewer(ctx context.Context, repo Repository, taskID, actorID uuid.UUID, role enums.Role) (*models.Task, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	task, err := s.loadTask(ctx, repo, taskID)
	if err != nil {
		return nil, err
	}
	isAssigner := task.AssignedByID != nil && *task.AssignedByID == actorID
	if !roles.Can(role, roles.CapReviewTasks) && !isAssigner {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot review tasks")
	}
	return task, nil
}

// openSession relies on the partial unique index over open sessions: a
// concurrent open on the same task surfaces as a unique violation here.
func (s *service) openSession(ctx context.Context, repo Repository, task *models.Task, now time.Time) error {
	session := &models.TaskTimeSession{
		TaskID:    task.ID,
		WorkerID:  task.AssignedToID,
		StartedAt: now,
	}
	if err := repo.CreateSession(ctx, session); err != nil {
		if isOpenSessionViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "task already has an open session")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open time session")
	}
	return nil
}

func (s *service) closeOpenSession(ctx context.Context, repo Repository, taskID uuid.UUID, now time.Time) (int64, error) {
	session, err := repo.FindOpenSession(ctx, taskID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open session")
	}

	duration := int64(now.Sub(session.StartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}
	affected, err := repo.CloseSession(ctx, session.ID, now, duration)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close time session")
	}
	if affected == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeConflict, "session closed concurrently")
	}
	return duration, nil
}

func (s *service) emitLifecycle(ctx context.Context, tx *gorm.DB, task *models.Task, eventType enums.OutboxEventType, from, to enums.TaskStatus, actorID uuid.UUID, role enums.Role, reason string) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateTask,
		AggregateID:   task.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actorID, Role: string(role)},
		Data: payloads.TaskLifecycleEvent{
			TaskID:     task.ID,
			OrderID:    task.OrderID,
			WorkerID:   task.AssignedToID,
			FromStatus: from,
			ToStatus:   to,
			Reason:     reason,
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}

// notify is fire-and-forget: a failed notification never rolls back the
// transition that produced it.
func (s *service) notify(ctx context.Context, tx *gorm.DB, input notifications.NotifyInput) {
	if err := s.notifier.NotifyTx(ctx, tx, input); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("task notification failed: %v", err))
	}
}

func notificationPriority(priority enums.TaskPriority) enums.NotificationPriority {
	switch priority {
	case enums.TaskPriorityUrgent, enums.TaskPriorityCritical:
		return enums.NotificationPriorityHigh
	default:
		return enums.NotificationPriorityNormal
	}
}

func transitionRejected(from, to enums.TaskStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "task transition not allowed").
		WithDetails(map[string]string{
			"current_status":   string(from),
			"attempted_status": string(to),
		})
}

func isOpenSessionViolation(err error) bool {
	return db.IsUniqueViolation(err, "ux_task_time_sessions_open")
}
