package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aerozone/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// statsWindow bounds how many recent executions feed the statistics.
const statsWindow = 100

// BackupService orchestrates single executions, polls for due schedules and
// aggregates statistics. It is the boundary where fatal errors from the
// export, archive and delivery stages become terminal execution records.
type BackupService struct {
	schedules  ScheduleStore
	executions ExecutionStore
	export     *ExportService
	archive    *ArchiveService
	delivery   *DeliveryService
	log        *zap.SugaredLogger
	now        func() time.Time
}

func NewBackupService(schedules ScheduleStore, executions ExecutionStore, export *ExportService, archive *ArchiveService, delivery *DeliveryService, log *zap.SugaredLogger) *BackupService {
	return &BackupService{
		schedules:  schedules,
		executions: executions,
		export:     export,
		archive:    archive,
		delivery:   delivery,
		log:        log,
		now:        time.Now,
	}
}

// ExecuteSchedule runs one backup attempt: aggregate, build, deliver. The
// execution record transitions from running to exactly one terminal status,
// is appended to the execution store once regardless of outcome, and the
// schedule's counters and next run are updated afterwards. The execution is
// returned alongside the stage error, if any.
func (s *BackupService) ExecuteSchedule(ctx context.Context, schedule *models.BackupSchedule, triggeredBy string) (*models.BackupExecution, error) {
	start := s.now()
	exec := &models.BackupExecution{
		ID:           uuid.New(),
		ScheduleID:   schedule.ID,
		ScheduleName: schedule.Name,
		StartTime:    start,
		Status:       models.ExecutionRunning,
		Metadata: models.ExecutionMetadata{
			TriggeredBy: triggeredBy,
		},
	}

	runErr := s.run(ctx, schedule, exec)

	end := s.now()
	exec.EndTime = &end
	exec.Metadata.DurationMillis = end.Sub(start).Milliseconds()
	if runErr != nil {
		exec.Status = models.ExecutionFailed
		exec.ErrorMessage = runErr.Error()
	} else {
		exec.Status = models.ExecutionCompleted
	}

	if err := s.executions.Append(exec); err != nil {
		s.log.Errorw("appending backup execution record failed",
			"schedule", schedule.Name, "execution", exec.ID, "error", err)
	}

	var nextRun *time.Time
	if next, err := ComputeNextRun(schedule.Recurrence, end); err != nil {
		s.log.Errorw("recomputing next run failed",
			"schedule", schedule.Name, "error", err)
	} else {
		nextRun = &next
	}
	if err := s.schedules.RecordRun(schedule.ID, start, runErr == nil, nextRun); err != nil {
		s.log.Errorw("updating schedule run counters failed",
			"schedule", schedule.Name, "error", err)
	}

	if runErr != nil {
		s.log.Errorw("backup execution failed",
			"schedule", schedule.Name, "execution", exec.ID,
			"duration_ms", exec.Metadata.DurationMillis, "error", runErr)
		return exec, runErr
	}

	s.log.Infow("backup execution completed",
		"schedule", schedule.Name, "execution", exec.ID,
		"size_bytes", exec.ExportSize, "duration_ms", exec.Metadata.DurationMillis)
	return exec, nil
}

// run performs the three stages with fail-and-stop semantics: an aggregation
// error prevents archive and delivery work, an archive error prevents
// delivery.
func (s *BackupService) run(ctx context.Context, schedule *models.BackupSchedule, exec *models.BackupExecution) error {
	result, err := s.export.Aggregate(ctx, schedule)
	if err != nil {
		return err
	}
	exec.Metadata.ExportedRecords = result.Counts

	archive, err := s.archive.Build(result, schedule)
	if err != nil {
		return err
	}
	exec.ExportSize = int64(len(archive))

	return s.delivery.Deliver(ctx, archive, schedule, exec)
}

// RunDue executes every active schedule whose next run is at or before now.
// Failures are isolated per schedule: one failed execution never stops the
// rest of the poll cycle.
func (s *BackupService) RunDue(ctx context.Context) []*models.BackupExecution {
	now := s.now()
	due, err := s.schedules.ListDue(now)
	if err != nil {
		s.log.Errorw("listing due backup schedules failed", "error", err)
		return nil
	}
	if len(due) == 0 {
		return nil
	}

	s.log.Infow("running due backup schedules", "count", len(due))
	executions := make([]*models.BackupExecution, 0, len(due))
	for _, schedule := range due {
		exec, err := s.ExecuteSchedule(ctx, schedule, models.TriggeredBySchedule)
		if err != nil {
			s.log.Errorw("scheduled backup failed",
				"schedule", schedule.Name, "error", err)
		}
		if exec != nil {
			executions = append(executions, exec)
		}
	}
	return executions
}

// RunScheduleByID triggers one schedule manually.
func (s *BackupService) RunScheduleByID(ctx context.Context, id uuid.UUID) (*models.BackupExecution, error) {
	schedule, err := s.schedules.GetByID(id)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, ErrScheduleNotFound
	}
	return s.ExecuteSchedule(ctx, schedule, models.TriggeredByManual)
}

// GetBackupStats summarizes all schedules and the execution history.
// TotalExecutions spans the whole history; the success/failure counts,
// exported-byte sum and duration average are taken over the recent window.
// An empty history yields zeroed counts and absent timestamps.
func (s *BackupService) GetBackupStats() (*models.BackupStats, error) {
	schedules, total, err := s.schedules.List(0, 0)
	if err != nil {
		return nil, fmt.Errorf("listing schedules: %w", err)
	}

	stats := &models.BackupStats{TotalSchedules: total}
	for _, schedule := range schedules {
		if !schedule.IsActive {
			continue
		}
		stats.ActiveSchedules++
		if schedule.NextRun != nil &&
			(stats.NextScheduledRun == nil || schedule.NextRun.Before(*stats.NextScheduledRun)) {
			stats.NextScheduledRun = schedule.NextRun
		}
	}

	total, err = s.executions.Count()
	if err != nil {
		return nil, fmt.Errorf("counting executions: %w", err)
	}
	stats.TotalExecutions = total

	recent, err := s.executions.ListRecent(statsWindow)
	if err != nil {
		return nil, fmt.Errorf("listing recent executions: %w", err)
	}

	var durationSum int64
	var completed int64
	for _, exec := range recent {
		switch exec.Status {
		case models.ExecutionCompleted:
			stats.SuccessfulExecutions++
			stats.TotalExportedBytes += exec.ExportSize
			durationSum += exec.Metadata.DurationMillis
			completed++
			if exec.EndTime != nil &&
				(stats.LastSuccess == nil || exec.EndTime.After(*stats.LastSuccess)) {
				stats.LastSuccess = exec.EndTime
			}
		case models.ExecutionFailed:
			stats.FailedExecutions++
		}
	}
	if completed > 0 {
		stats.AvgDurationMillis = durationSum / completed
	}

	return stats, nil
}
