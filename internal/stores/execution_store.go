package stores

import (
	"github.com/aerozone/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormExecutionStore appends execution records to the backup_executions
// table. Records are audit data: inserted once at their terminal status and
// never updated, and never cascaded when a schedule is deleted.
type GormExecutionStore struct {
	db *gorm.DB
}

func NewGormExecutionStore(db *gorm.DB) *GormExecutionStore {
	return &GormExecutionStore{db: db}
}

func (s *GormExecutionStore) Append(exec *models.BackupExecution) error {
	return s.db.Create(exec).Error
}

func (s *GormExecutionStore) ListBySchedule(scheduleID uuid.UUID, limit int) ([]*models.BackupExecution, error) {
	var executions []*models.BackupExecution
	query := s.db.Where("schedule_id = ?", scheduleID).Order("start_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&executions).Error; err != nil {
		return nil, err
	}
	return executions, nil
}

func (s *GormExecutionStore) Count() (int64, error) {
	var total int64
	if err := s.db.Model(&models.BackupExecution{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *GormExecutionStore) ListRecent(limit int) ([]*models.BackupExecution, error) {
	var executions []*models.BackupExecution
	query := s.db.Order("start_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&executions).Error; err != nil {
		return nil, err
	}
	return executions, nil
}
