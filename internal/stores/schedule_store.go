package stores

import (
	"errors"
	"time"

	"github.com/aerozone/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormScheduleStore persists backup schedules in the backup_schedules table.
type GormScheduleStore struct {
	db *gorm.DB
}

func NewGormScheduleStore(db *gorm.DB) *GormScheduleStore {
	return &GormScheduleStore{db: db}
}

func (s *GormScheduleStore) Create(schedule *models.BackupSchedule) error {
	return s.db.Create(schedule).Error
}

func (s *GormScheduleStore) GetByID(id uuid.UUID) (*models.BackupSchedule, error) {
	var schedule models.BackupSchedule
	if err := s.db.First(&schedule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

func (s *GormScheduleStore) List(offset, limit int) ([]*models.BackupSchedule, int64, error) {
	var schedules []*models.BackupSchedule
	var total int64

	if err := s.db.Model(&models.BackupSchedule{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := s.db.Order("created_at DESC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&schedules).Error; err != nil {
		return nil, 0, err
	}
	return schedules, total, nil
}

func (s *GormScheduleStore) Update(schedule *models.BackupSchedule) error {
	return s.db.Save(schedule).Error
}

func (s *GormScheduleStore) Delete(id uuid.UUID) error {
	return s.db.Delete(&models.BackupSchedule{}, "id = ?", id).Error
}

// ListDue returns active schedules whose next run is at or before now.
func (s *GormScheduleStore) ListDue(now time.Time) ([]*models.BackupSchedule, error) {
	var schedules []*models.BackupSchedule
	err := s.db.
		Where("is_active = ? AND next_run IS NOT NULL AND next_run <= ?", true, now).
		Order("next_run ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

// RecordRun bumps the run counters with SQL expressions so concurrent
// updates cannot lose increments, and stores the recomputed next run.
func (s *GormScheduleStore) RecordRun(id uuid.UUID, lastRun time.Time, succeeded bool, nextRun *time.Time) error {
	updates := map[string]interface{}{
		"last_run":   lastRun,
		"next_run":   nextRun,
		"total_runs": gorm.Expr("total_runs + 1"),
		"updated_at": time.Now().UTC(),
	}
	if succeeded {
		updates["successful_runs"] = gorm.Expr("successful_runs + 1")
	} else {
		updates["failed_runs"] = gorm.Expr("failed_runs + 1")
	}
	return s.db.Model(&models.BackupSchedule{}).Where("id = ?", id).Updates(updates).Error
}
