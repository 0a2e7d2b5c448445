package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The entity sets below are what the export aggregator snapshots into backup
// archives: clubs, flight zones, event types, events, users and zone
// schedules.

type Club struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Region       string    `json:"region,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	Website      string    `json:"website,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Club) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Zone struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ClubID        uuid.UUID `gorm:"type:uuid;index" json:"club_id"`
	Name          string    `gorm:"not null" json:"name"`
	Category      string    `json:"category,omitempty"`
	MaxAltitudeFt int       `json:"max_altitude_ft,omitempty"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (z *Zone) BeforeCreate(tx *gorm.DB) error {
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	return nil
}

type EventType struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (t *EventType) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type Event struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ZoneID      uuid.UUID `gorm:"type:uuid;index" json:"zone_id"`
	EventTypeID uuid.UUID `gorm:"type:uuid;index" json:"event_type_id"`
	Name        string    `gorm:"not null" json:"name"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `gorm:"default:'member'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ZoneSchedule is a zone's recurring opening window (not to be confused with
// a BackupSchedule).
type ZoneSchedule struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ZoneID    uuid.UUID `gorm:"type:uuid;index" json:"zone_id"`
	Weekday   int       `json:"weekday"` // 0=Sunday
	OpensAt   string    `json:"opens_at"`
	ClosesAt  string    `json:"closes_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *ZoneSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
