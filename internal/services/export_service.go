package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aerozone/backend/internal/models"
	"go.uber.org/zap"
)

// EntityReaders is the collaborator that reads the exportable entity sets.
type EntityReaders interface {
	ListClubs(ctx context.Context) ([]models.Club, error)
	ListZones(ctx context.Context) ([]models.Zone, error)
	ListEventTypes(ctx context.Context) ([]models.EventType, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListZoneSchedules(ctx context.Context) ([]models.ZoneSchedule, error)
}

// ExportMetadata is the optional export-info record embedded in the archive.
type ExportMetadata struct {
	ExportDate   time.Time           `json:"export_date"`
	Version      string              `json:"version"`
	ScheduleID   string              `json:"schedule_id"`
	ScheduleName string              `json:"schedule_name"`
	TotalRecords int                 `json:"total_records"`
	ExportConfig models.ExportConfig `json:"export_config"`
	AppVersion   string              `json:"app_version"`
}

// ExportResult is the in-memory export payload plus per-entity-set counts.
type ExportResult struct {
	Payload  map[string]interface{}
	Counts   map[string]int
	Metadata *ExportMetadata
}

type ExportService struct {
	readers    EntityReaders
	appVersion string
	log        *zap.SugaredLogger
	now        func() time.Time
}

func NewExportService(readers EntityReaders, appVersion string, log *zap.SugaredLogger) *ExportService {
	return &ExportService{
		readers:    readers,
		appVersion: appVersion,
		log:        log,
		now:        time.Now,
	}
}

// Aggregate snapshots every entity set enabled in the schedule's export
// config. Any reader error is fatal to the whole aggregation; there is no
// per-entity tolerance.
func (s *ExportService) Aggregate(ctx context.Context, schedule *models.BackupSchedule) (*ExportResult, error) {
	cfg := schedule.ExportConfig
	result := &ExportResult{
		Payload: make(map[string]interface{}),
		Counts: map[string]int{
			"events":     0,
			"users":      0,
			"clubs":      0,
			"zones":      0,
			"eventTypes": 0,
		},
	}

	if cfg.IncludeClubs {
		clubs, err := s.readers.ListClubs(ctx)
		if err != nil {
			return nil, &ExportAggregationError{Err: fmt.Errorf("reading clubs: %w", err)}
		}
		result.Payload["clubs"] = clubs
		result.Counts["clubs"] = len(clubs)
	}

	if cfg.IncludeZones {
		zones, err := s.readers.ListZones(ctx)
		if err != nil {
			return nil, &ExportAggregationError{Err: fmt.Errorf("reading zones: %w", err)}
		}
		result.Payload["zones"] = zones
		result.Counts["zones"] = len(zones)
	}

	if cfg.IncludeEventTypes {
		eventTypes, err := s.readers.ListEventTypes(ctx)
		if err != nil {
			return nil, &ExportAggregationError{Err: fmt.Errorf("reading event types: %w", err)}
		}
		result.Payload["eventTypes"] = eventTypes
		result.Counts["eventTypes"] = len(eventTypes)
	}

	if cfg.IncludeEvents {
		events, err := s.readers.ListEvents(ctx)
		if err != nil {
			return nil, &ExportAggregationError{Err: fmt.Errorf("reading events: %w", err)}
		}
		result.Payload["events"] = events
		result.Counts["events"] = len(events)
	}

	if cfg.IncludeUsers {
		users, err := s.readers.ListUsers(ctx)
		if err != nil {
			return nil, &ExportAggregationError{Err: fmt.Errorf("reading users: %w", err)}
		}
		result.Payload["users"] = users
		result.Counts["users"] = len(users)
	}

	if cfg.IncludeSchedules {
		zoneSchedules, err := s.readers.ListZoneSchedules(ctx)
		if err != nil {
			return nil, &ExportAggregationError{Err: fmt.Errorf("reading zone schedules: %w", err)}
		}
		result.Payload["schedules"] = zoneSchedules
		result.Counts["schedules"] = len(zoneSchedules)
	}

	if cfg.IncludeMetadata {
		total := 0
		for _, n := range result.Counts {
			total += n
		}
		result.Metadata = &ExportMetadata{
			ExportDate:   s.now().UTC(),
			Version:      archiveFormatVersion,
			ScheduleID:   schedule.ID.String(),
			ScheduleName: schedule.Name,
			TotalRecords: total,
			ExportConfig: cfg,
			AppVersion:   s.appVersion,
		}
	}

	return result, nil
}
