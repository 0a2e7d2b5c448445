package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recurrence frequencies
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyCustom  = "custom"
)

// Compression levels
const (
	CompressionLow    = "low"
	CompressionMedium = "medium"
	CompressionHigh   = "high"
)

// Delivery methods
const (
	DeliveryMethodEmail   = "email"
	DeliveryMethodStorage = "storage"
	DeliveryMethodBoth    = "both"
)

// Execution statuses
const (
	ExecutionRunning   = "running"
	ExecutionCompleted = "completed"
	ExecutionFailed    = "failed"
	ExecutionCancelled = "cancelled"
)

// Per-channel delivery statuses
const (
	ChannelPending  = "pending"
	ChannelSent     = "sent"
	ChannelUploaded = "uploaded"
	ChannelFailed   = "failed"
)

// Execution triggers
const (
	TriggeredBySchedule = "schedule"
	TriggeredByManual   = "manual"
)

// StorageProviderFirebase is the only storage provider with a wired uploader.
// Any other provider identifier fails the storage channel loudly.
const StorageProviderFirebase = "firebase"

// Recurrence describes when a backup schedule fires. Hour and Minute are
// interpreted in Timezone (IANA name, UTC when empty).
type Recurrence struct {
	Frequency        string `json:"frequency"` // daily, weekly, monthly, custom
	Hour             int    `json:"hour"`
	Minute           int    `json:"minute"`
	Timezone         string `json:"timezone,omitempty"`
	Weekday          *int   `json:"weekday,omitempty"`      // 0=Sunday, weekly only
	DayOfMonth       *int   `json:"day_of_month,omitempty"` // 1-31, monthly only
	CustomExpression string `json:"custom_expression,omitempty"`
}

// ExportConfig selects which entity sets go into the archive.
type ExportConfig struct {
	IncludeEvents     bool       `json:"include_events"`
	IncludeUsers      bool       `json:"include_users"`
	IncludeClubs      bool       `json:"include_clubs"`
	IncludeZones      bool       `json:"include_zones"`
	IncludeEventTypes bool       `json:"include_event_types"`
	IncludeSchedules  bool       `json:"include_schedules"`
	IncludeMetadata   bool       `json:"include_metadata"`
	IncludeManifest   bool       `json:"include_manifest"`
	Compression       string     `json:"compression"` // low, medium, high
	DateFrom          *time.Time `json:"date_from,omitempty"`
	DateTo            *time.Time `json:"date_to,omitempty"`
}

// EmailDelivery configures the email channel.
type EmailDelivery struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"` // may contain a {date} placeholder

	// MaxFileSizeMB caps the attachment size; 0 or negative disables the
	// ceiling and sends archives of any size.
	MaxFileSizeMB   int  `json:"max_file_size_mb"`
	IncludeMetadata bool `json:"include_metadata"`
}

// StorageDelivery configures the durable-storage channel.
type StorageDelivery struct {
	Provider      string `json:"provider"`
	Path          string `json:"path"`
	RetentionDays *int   `json:"retention_days,omitempty"`
	Compress      bool   `json:"compress"`
}

// DeliveryConfig selects the delivery channels for a schedule.
type DeliveryConfig struct {
	Method  string           `json:"method"` // email, storage, both
	Email   *EmailDelivery   `json:"email,omitempty"`
	Storage *StorageDelivery `json:"storage,omitempty"`
}

// BackupSchedule is a named, user-owned configuration for a recurring export.
// NextRun is the earliest future timestamp satisfying the recurrence; it is
// recomputed whenever the recurrence changes and after every execution.
// TotalRuns always equals SuccessfulRuns + FailedRuns.
type BackupSchedule struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name           string         `gorm:"not null" json:"name"`
	Description    string         `json:"description,omitempty"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	Recurrence     Recurrence     `gorm:"serializer:json" json:"recurrence"`
	ExportConfig   ExportConfig   `gorm:"serializer:json" json:"export_config"`
	DeliveryConfig DeliveryConfig `gorm:"serializer:json" json:"delivery_config"`
	IsActive       bool           `gorm:"not null" json:"is_active"`
	TotalRuns      int            `gorm:"default:0" json:"total_runs"`
	SuccessfulRuns int            `gorm:"default:0" json:"successful_runs"`
	FailedRuns     int            `gorm:"default:0" json:"failed_runs"`
	LastRun        *time.Time     `json:"last_run,omitempty"`
	NextRun        *time.Time     `json:"next_run,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (s *BackupSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// DeliveryStatus carries the per-channel outcome of one execution. A channel
// that was not configured stays empty.
type DeliveryStatus struct {
	Email   string `json:"email,omitempty"`   // pending, sent, failed
	Storage string `json:"storage,omitempty"` // pending, uploaded, failed
}

// ExecutionMetadata holds the exported record counts and timing of one run.
type ExecutionMetadata struct {
	ExportedRecords map[string]int `json:"exported_records,omitempty"`
	DurationMillis  int64          `json:"execution_duration_ms"`
	TriggeredBy     string         `json:"triggered_by"` // schedule, manual
}

// BackupExecution is the record of one run attempt. It is appended to the
// execution store exactly once, at its terminal transition, and is never
// mutated afterwards; re-runs create new records. ScheduleName is
// denormalized so the record stays readable after the schedule is deleted.
type BackupExecution struct {
	ID             uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	ScheduleID     uuid.UUID         `gorm:"type:uuid;index;not null" json:"schedule_id"`
	ScheduleName   string            `gorm:"not null" json:"schedule_name"`
	StartTime      time.Time         `gorm:"not null" json:"start_time"`
	EndTime        *time.Time        `json:"end_time,omitempty"`
	Status         string            `gorm:"not null;default:'running'" json:"status"`
	ExportSize     int64             `json:"export_size"`
	StoragePath    string            `json:"storage_path,omitempty"`
	DownloadURL    string            `json:"download_url,omitempty"`
	DeliveryStatus DeliveryStatus    `gorm:"serializer:json" json:"delivery_status"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	Metadata       ExecutionMetadata `gorm:"serializer:json" json:"metadata"`
	CreatedAt      time.Time         `json:"created_at"`
}

func (e *BackupExecution) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// BackupStats summarizes schedules and the recent execution history.
type BackupStats struct {
	TotalSchedules       int64      `json:"total_schedules"`
	ActiveSchedules      int64      `json:"active_schedules"`
	TotalExecutions      int64      `json:"total_executions"`
	SuccessfulExecutions int64      `json:"successful_executions"`
	FailedExecutions     int64      `json:"failed_executions"`
	LastSuccess          *time.Time `json:"last_success,omitempty"`
	NextScheduledRun     *time.Time `json:"next_scheduled_run,omitempty"`
	TotalExportedBytes   int64      `json:"total_exported_bytes"`
	AvgDurationMillis    int64      `json:"avg_duration_ms"`
}
