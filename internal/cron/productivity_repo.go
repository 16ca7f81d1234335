package cron

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oakandloom/workshop-backend/pkg/db/models"
	"github.com/oakandloom/workshop-backend/pkg/enums"
)

// ProductivityRepository aggregates task activity into per-worker day rows.
// It lives with the cron worker because nothing else reads or writes the
// rollup table.
type ProductivityRepository interface {
	WorkedSecondsByWorker(ctx context.Context, from, to time.Time) (map[uuid.UUID]int64, error)
	CompletionsByWorker(ctx context.Context, from, to time.Time) (map[uuid.UUID]CompletionCounts, error)
	ApprovalsByWorker(ctx context.Context, from, to time.Time) (map[uuid.UUID]int, error)
	RejectionsByWorker(ctx context.Context, from, to time.Time) (map[uuid.UUID]int, error)
	UpsertRollup(ctx context.Context, rollup *models.WorkerProductivity) error
}

// CompletionCounts pairs the completed-task count with the estimated effort
// behind those tasks.
type CompletionCounts struct {
	Tasks            int
	EstimatedSeconds int64
}

type productivityRepositoryImpl struct {
	db *gorm.DB
}

// NewProductivityRepository returns a rollup repository bound to the provided database.
func NewProductivityRepository(db *gorm.DB) ProductivityRepository {
	return &productivityRepositoryImpl{db: db}
}

func (r *productivityRepositoryImpl) WorkedSecondsByWorker(ctx context.Context, from, to time.Time) (map[uuid.UUID]int64, error) {
	var rows []struct {
		WorkerID uuid.UUID
		Seconds  int64
	}
	err := r.db.WithContext(ctx).
		Table("task_time_sessions").
		Select("tasks.assigned_to_id AS worker_id, COALESCE(SUM(task_time_sessions.duration_seconds), 0) AS seconds").
		Joins("JOIN tasks ON tasks.id = task_time_sessions.task_id").
		Where("task_time_sessions.ended_at >= ? AND task_time_sessions.ended_at < ?", from, to).
		Group("tasks.assigned_to_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[uuid.UUID]int64{}
	for _, row := range rows {
		out[row.WorkerID] = row.Seconds
	}
	return out, nil
}

func (r *productivityRepositoryImpl) CompletionsByWorker(ctx context.Context, from, to time.Time) (map[uuid.UUID]CompletionCounts, error) {
	var rows []struct {
		WorkerID       uuid.UUID
		Tasks          int
		EstimatedHours float64
	}
	err := r.db.WithContext(ctx).
		Table("tasks").
		Select("assigned_to_id AS worker_id, COUNT(*) AS tasks, COALESCE(SUM(estimated_hours), 0) AS estimated_hours").
		Where("completed_at >= ? AND completed_at < ?", from, to).
		Group("assigned_to_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[uuid.UUID]CompletionCounts{}
	for _, row := range rows {
		out[row.WorkerID] = CompletionCounts{
			Tasks:            row.Tasks,
			EstimatedSeconds: int64(row.EstimatedHours * 3600),
		}
	}
	return out, nil
}

func (r *productivityRepositoryImpl) ApprovalsByWorker(ctx context.Context, from, to time.Time) (map[uuid.UUID]int, error) {
	var rows []struct {
		WorkerID uuid.UUID
		Tasks    int
	}
	err := r.db.WithContext(ctx).
		Table("tasks").
		Select("assigned_to_id AS worker_id, COUNT(*) AS tasks").
		Where("approved_at >= ? AND approved_at < ?", from, to).
		Group("assigned_to_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[uuid.UUID]int{}
	for _, row := range rows {
		out[row.WorkerID] = row.Tasks
	}
	return out, nil
}

// RejectionsByWorker counts rejection notes, since a task carries no
// rejected_at timestamp and can be rejected more than once.
func (r *productivityRepositoryImpl) RejectionsByWorker(ctx context.Context, from, to time.Time) (map[uuid.UUID]int, error) {
	var rows []struct {
		WorkerID uuid.UUID
		Tasks    int
	}
	err := r.db.WithContext(ctx).
		Table("task_notes").
		Select("tasks.assigned_to_id AS worker_id, COUNT(*) AS tasks").
		Joins("JOIN tasks ON tasks.id = task_notes.task_id").
		Where("task_notes.note_type = ?", enums.TaskNoteTypeRejection).
		Where("task_notes.created_at >= ? AND task_notes.created_at < ?", from, to).
		Group("tasks.assigned_to_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[uuid.UUID]int{}
	for _, row := range rows {
		out[row.WorkerID] = row.Tasks
	}
	return out, nil
}

func (r *productivityRepositoryImpl) UpsertRollup(ctx context.Context, rollup *models.WorkerProductivity) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "worker_id"}, {Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"tasks_completed", "tasks_approved", "tasks_rejected",
				"worked_seconds", "efficiency_ratio", "updated_at",
			}),
		}).
		Create(rollup).Error
}
