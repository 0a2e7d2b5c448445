package services

import (
	"time"

	"github.com/aerozone/backend/internal/models"
	"github.com/google/uuid"
)

// ScheduleStore persists backup schedules. RecordRun must apply the counter
// updates as a single atomic read-modify-write; the engine never computes
// counter values in memory.
type ScheduleStore interface {
	Create(schedule *models.BackupSchedule) error

	// GetByID returns (nil, nil) when no schedule matches.
	GetByID(id uuid.UUID) (*models.BackupSchedule, error)
	List(offset, limit int) ([]*models.BackupSchedule, int64, error)
	Update(schedule *models.BackupSchedule) error
	Delete(id uuid.UUID) error

	// ListDue returns active schedules with next_run at or before now.
	ListDue(now time.Time) ([]*models.BackupSchedule, error)

	// RecordRun sets last_run, bumps total_runs and the success or failure
	// counter, and stores the recomputed next_run.
	RecordRun(id uuid.UUID, lastRun time.Time, succeeded bool, nextRun *time.Time) error
}

// ExecutionStore appends terminal execution records and serves history
// queries. Records are never updated in place.
type ExecutionStore interface {
	Append(exec *models.BackupExecution) error
	ListBySchedule(scheduleID uuid.UUID, limit int) ([]*models.BackupExecution, error)
	ListRecent(limit int) ([]*models.BackupExecution, error)

	// Count returns the number of executions across the whole history, not
	// just the recent window.
	Count() (int64, error)
}
