package services

import (
	"fmt"
	"time"

	"github.com/aerozone/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScheduleService owns backup schedule CRUD and keeps NextRun consistent
// with the recurrence configuration.
type ScheduleService struct {
	store ScheduleStore
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewScheduleService(store ScheduleStore, log *zap.SugaredLogger) *ScheduleService {
	return &ScheduleService{store: store, log: log, now: time.Now}
}

// Create validates the schedule, computes the initial next run for active
// schedules and persists it.
func (s *ScheduleService) Create(schedule *models.BackupSchedule) error {
	if err := s.validate(schedule); err != nil {
		return err
	}
	if schedule.ExportConfig.Compression == "" {
		schedule.ExportConfig.Compression = models.CompressionMedium
	}
	if schedule.IsActive {
		next, err := ComputeNextRun(schedule.Recurrence, s.now())
		if err != nil {
			return err
		}
		schedule.NextRun = &next
	}
	return s.store.Create(schedule)
}

// Update persists changes to an existing schedule. NextRun is recomputed
// when the recurrence changed or the schedule was (re)activated, and cleared
// when it is deactivated.
func (s *ScheduleService) Update(schedule *models.BackupSchedule) error {
	existing, err := s.store.GetByID(schedule.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrScheduleNotFound
	}
	if err := s.validate(schedule); err != nil {
		return err
	}

	switch {
	case !schedule.IsActive:
		schedule.NextRun = nil
	case !recurrenceEqual(schedule.Recurrence, existing.Recurrence) || !existing.IsActive:
		next, err := ComputeNextRun(schedule.Recurrence, s.now())
		if err != nil {
			return err
		}
		schedule.NextRun = &next
	default:
		schedule.NextRun = existing.NextRun
	}

	schedule.TotalRuns = existing.TotalRuns
	schedule.SuccessfulRuns = existing.SuccessfulRuns
	schedule.FailedRuns = existing.FailedRuns
	schedule.LastRun = existing.LastRun
	return s.store.Update(schedule)
}

func (s *ScheduleService) GetByID(id uuid.UUID) (*models.BackupSchedule, error) {
	schedule, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, ErrScheduleNotFound
	}
	return schedule, nil
}

func (s *ScheduleService) List(offset, limit int) ([]*models.BackupSchedule, int64, error) {
	return s.store.List(offset, limit)
}

// Delete removes the schedule. Execution history is retained; executions
// carry a denormalized schedule name and never cascade.
func (s *ScheduleService) Delete(id uuid.UUID) error {
	schedule, err := s.store.GetByID(id)
	if err != nil {
		return err
	}
	if schedule == nil {
		return ErrScheduleNotFound
	}
	return s.store.Delete(id)
}

// SetActive toggles a schedule, computing or clearing NextRun accordingly.
func (s *ScheduleService) SetActive(id uuid.UUID, active bool) error {
	schedule, err := s.store.GetByID(id)
	if err != nil {
		return err
	}
	if schedule == nil {
		return ErrScheduleNotFound
	}
	schedule.IsActive = active
	if active {
		next, err := ComputeNextRun(schedule.Recurrence, s.now())
		if err != nil {
			return err
		}
		schedule.NextRun = &next
	} else {
		schedule.NextRun = nil
	}
	return s.store.Update(schedule)
}

func recurrenceEqual(a, b models.Recurrence) bool {
	if a.Frequency != b.Frequency || a.Hour != b.Hour || a.Minute != b.Minute ||
		a.Timezone != b.Timezone || a.CustomExpression != b.CustomExpression {
		return false
	}
	return intPtrEqual(a.Weekday, b.Weekday) && intPtrEqual(a.DayOfMonth, b.DayOfMonth)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *ScheduleService) validate(schedule *models.BackupSchedule) error {
	if schedule.Name == "" {
		return fmt.Errorf("schedule name is required")
	}
	if err := ValidateRecurrence(schedule.Recurrence); err != nil {
		return err
	}

	switch c := schedule.ExportConfig.Compression; c {
	case "", models.CompressionLow, models.CompressionMedium, models.CompressionHigh:
	default:
		return fmt.Errorf("unknown compression level %q", c)
	}

	method := schedule.DeliveryConfig.Method
	switch method {
	case models.DeliveryMethodEmail, models.DeliveryMethodStorage, models.DeliveryMethodBoth:
	default:
		return fmt.Errorf("unknown delivery method %q", method)
	}
	if method == models.DeliveryMethodEmail || method == models.DeliveryMethodBoth {
		email := schedule.DeliveryConfig.Email
		if email == nil || len(validRecipients(email.Recipients)) == 0 {
			return fmt.Errorf("email delivery requires at least one valid recipient")
		}
	}
	if method == models.DeliveryMethodStorage || method == models.DeliveryMethodBoth {
		storage := schedule.DeliveryConfig.Storage
		if storage == nil || storage.Provider == "" {
			return fmt.Errorf("storage delivery requires a provider")
		}
	}
	return nil
}
