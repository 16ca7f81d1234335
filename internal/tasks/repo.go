package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
	"github.com/oakandloom/workshop-backend/pkg/pagination"
)

// Repository exposes persistence helpers for tasks, time sessions and notes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateType(ctx context.Context, taskType *models.TaskType) error
	FindType(ctx context.Context, id uuid.UUID) (*models.TaskType, error)
	ListTypes(ctx context.Context, activeOnly bool) ([]models.TaskType, error)
	CreateTask(ctx context.Context, task *models.Task) error
	FindTask(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListTasks(ctx context.Context, params listTasksParams) ([]models.Task, *pagination.Cursor, error)
	ListTasksForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Task, error)
	UpdateTaskGuarded(ctx context.Context, id uuid.UUID, from []enums.TaskStatus, updates map[string]any) (int64, error)
	CreateSession(ctx context.Context, session *models.TaskTimeSession) error
	FindOpenSession(ctx context.Context, taskID uuid.UUID) (*models.TaskTimeSession, error)
	CloseSession(ctx context.Context, sessionID uuid.UUID, endedAt time.Time, durationSeconds int64) (int64, error)
	CreateNote(ctx context.Context, note *models.TaskNote) error
	ListNotes(ctx context.Context, taskID uuid.UUID) ([]models.TaskNote, error)
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Task, error)
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a tasks repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listTasksParams struct {
	AssignedToID *uuid.UUID
	OrderID      *uuid.UUID
	Status       *enums.TaskStatus
	Limit        int
	Cursor       *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreateType(ctx context.Context, taskType *models.TaskType) error {
	return r.db.WithContext(ctx).Create(taskType).Error
}

func (r *repositoryImpl) FindType(ctx context.Context, id uuid.UUID) (*models.TaskType, error) {
	var taskType models.TaskType
	if err := r.db.WithContext(ctx).First(&taskType, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &taskType, nil
}

func (r *repositoryImpl) ListTypes(ctx context.Context, activeOnly bool) ([]models.TaskType, error) {
	query := r.db.WithContext(ctx).Model(&models.TaskType{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var types []models.TaskType
	if err := query.Order("sequence_order ASC, name ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (r *repositoryImpl) CreateTask(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *repositoryImpl) FindTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Preload("Type").
		Preload("AssignedTo").
		First(&task, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *repositoryImpl) ListTasks(ctx context.Context, params listTasksParams) ([]models.Task, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Task{})
	if params.AssignedToID != nil {
		query = query.Where("assigned_to_id = ?", *params.AssignedToID)
	}
	if params.OrderID != nil {
		query = query.Where("order_id = ?", *params.OrderID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var tasks []models.Task
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&tasks).Error; err != nil {
		return nil, nil, err
	}

	if len(tasks) > normalized {
		next := tasks[normalized]
		tasks = tasks[:normalized]
		return tasks, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return tasks, nil, nil
}

func (r *repositoryImpl) ListTasksForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateTaskGuarded applies updates only while the task still sits in one of
// the expected source statuses. Zero rows affected means a concurrent
// transition won.
func (r *repositoryImpl) UpdateTaskGuarded(ctx context.Context, id uuid.UUID, from []enums.TaskStatus, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) CreateSession(ctx context.Context, session *models.TaskTimeSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repositoryImpl) FindOpenSession(ctx context.Context, taskID uuid.UUID) (*models.TaskTimeSession, error) {
	var session models.TaskTimeSession
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND ended_at IS NULL", taskID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repositoryImpl) CloseSession(ctx context.Context, sessionID uuid.UUID, endedAt time.Time, durationSeconds int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TaskTimeSession{}).
		Where("id = ? AND ended_at IS NULL", sessionID).
		Updates(map[string]any{
			"ended_at":         endedAt,
			"duration_seconds": durationSeconds,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) CreateNote(ctx context.Context, note *models.TaskNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *repositoryImpl) ListNotes(ctx context.Context, taskID uuid.UUID) ([]models.TaskNote, error) {
	var notes []models.TaskNote
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *repositoryImpl) ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Task, error) {
	openStatuses := []enums.TaskStatus{
		enums.TaskStatusAssigned,
		enums.TaskStatusStarted,
		enums.TaskStatusPaused,
		enums.TaskStatusReviewNeeded,
	}
	query := r.db.WithContext(ctx).
		Where("due_date IS NOT NULL AND due_date < ? AND status IN ?", now, openStatuses).
		Order("due_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *repositoryImpl) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	openStatuses := []enums.TaskStatus{
		enums.TaskStatusAssigned,
		enums.TaskStatusStarted,
		enums.TaskStatusPaused,
		enums.TaskStatusReviewNeeded,
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("due_date IS NOT NULL AND due_date < ? AND status IN ?", now, openStatuses).
		Count(&count).Error
	return count, err
}
