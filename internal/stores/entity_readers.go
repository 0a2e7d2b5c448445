package stores

import (
	"context"

	"github.com/aerozone/backend/internal/models"
	"gorm.io/gorm"
)

// GormEntityReaders reads the exportable entity sets for the aggregator.
type GormEntityReaders struct {
	db *gorm.DB
}

func NewGormEntityReaders(db *gorm.DB) *GormEntityReaders {
	return &GormEntityReaders{db: db}
}

func (r *GormEntityReaders) ListClubs(ctx context.Context) ([]models.Club, error) {
	var clubs []models.Club
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&clubs).Error; err != nil {
		return nil, err
	}
	return clubs, nil
}

func (r *GormEntityReaders) ListZones(ctx context.Context) ([]models.Zone, error) {
	var zones []models.Zone
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *GormEntityReaders) ListEventTypes(ctx context.Context) ([]models.EventType, error) {
	var eventTypes []models.EventType
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&eventTypes).Error; err != nil {
		return nil, err
	}
	return eventTypes, nil
}

func (r *GormEntityReaders) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := r.db.WithContext(ctx).Order("starts_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *GormEntityReaders) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("email ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormEntityReaders) ListZoneSchedules(ctx context.Context) ([]models.ZoneSchedule, error) {
	var schedules []models.ZoneSchedule
	if err := r.db.WithContext(ctx).Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}
