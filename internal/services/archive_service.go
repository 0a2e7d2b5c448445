package services

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/aerozone/backend/internal/models"
	"go.uber.org/zap"
)

const (
	archiveFormatVersion = "1.0"
	archiveCreator       = "AeroZone Backup Engine"
)

type manifestFile struct {
	Size    int `json:"size"`
	Records int `json:"records"`
}

type archiveManifest struct {
	Version      string                  `json:"version"`
	ExportDate   time.Time               `json:"export_date"`
	ScheduleID   string                  `json:"schedule_id"`
	ScheduleName string                  `json:"schedule_name"`
	RecordCounts map[string]int          `json:"record_counts"`
	Files        map[string]manifestFile `json:"files"`
	Compression  string                  `json:"compression"`
	CreatedBy    string                  `json:"created_by"`
}

type ArchiveService struct {
	log *zap.SugaredLogger
	now func() time.Time
}

func NewArchiveService(log *zap.SugaredLogger) *ArchiveService {
	return &ArchiveService{log: log, now: time.Now}
}

// Build packages an export result into a single zip archive: one
// pretty-printed JSON file per entity set, the optional export-info and
// manifest files, and a generated README. The schedule's compression level
// maps to flate intensity 1/6/9.
func (s *ArchiveService) Build(result *ExportResult, schedule *models.BackupSchedule) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	level := compressionLevel(schedule.ExportConfig.Compression)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	files := make(map[string]manifestFile)

	writeJSON := func(name string, v interface{}) (int, error) {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return 0, fmt.Errorf("serializing %s: %w", name, err)
		}
		w, err := zw.Create(name)
		if err != nil {
			return 0, fmt.Errorf("creating archive entry %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return 0, fmt.Errorf("writing archive entry %s: %w", name, err)
		}
		return len(data), nil
	}

	// deterministic entry order
	keys := make([]string, 0, len(result.Payload))
	for key := range result.Payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		name := key + ".json"
		size, err := writeJSON(name, result.Payload[key])
		if err != nil {
			return nil, &ArchiveBuildError{Err: err}
		}
		files[name] = manifestFile{Size: size, Records: recordCount(result.Payload[key])}
	}

	if schedule.ExportConfig.IncludeMetadata && result.Metadata != nil {
		if _, err := writeJSON("export-info.json", result.Metadata); err != nil {
			return nil, &ArchiveBuildError{Err: err}
		}
	}

	if schedule.ExportConfig.IncludeManifest {
		manifest := archiveManifest{
			Version:      archiveFormatVersion,
			ExportDate:   s.now().UTC(),
			ScheduleID:   schedule.ID.String(),
			ScheduleName: schedule.Name,
			RecordCounts: result.Counts,
			Files:        files,
			Compression:  schedule.ExportConfig.Compression,
			CreatedBy:    archiveCreator,
		}
		if _, err := writeJSON("manifest.json", manifest); err != nil {
			return nil, &ArchiveBuildError{Err: err}
		}
	}

	readme, err := zw.Create("README.md")
	if err != nil {
		return nil, &ArchiveBuildError{Err: fmt.Errorf("creating README.md: %w", err)}
	}
	if _, err := readme.Write([]byte(s.renderReadme(result, schedule))); err != nil {
		return nil, &ArchiveBuildError{Err: fmt.Errorf("writing README.md: %w", err)}
	}

	if err := zw.Close(); err != nil {
		return nil, &ArchiveBuildError{Err: fmt.Errorf("finalizing archive: %w", err)}
	}
	return buf.Bytes(), nil
}

func compressionLevel(level string) int {
	switch level {
	case models.CompressionLow:
		return 1
	case models.CompressionHigh:
		return 9
	default: // medium
		return 6
	}
}

// recordCount measures arrays by element count; anything else counts as one
// record.
func recordCount(v interface{}) int {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return rv.Len()
	}
	return 1
}

func (s *ArchiveService) renderReadme(result *ExportResult, schedule *models.BackupSchedule) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Backup: %s\n\n", schedule.Name)
	if schedule.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", schedule.Description)
	}
	fmt.Fprintf(&b, "Generated: %s\n\n", s.now().UTC().Format(time.RFC3339))

	b.WriteString("## Contents\n\n")
	keys := make([]string, 0, len(result.Counts))
	for key := range result.Counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if result.Counts[key] > 0 {
			fmt.Fprintf(&b, "- %s: %d records\n", key, result.Counts[key])
		}
	}
	b.WriteString("\n")

	compression := schedule.ExportConfig.Compression
	if compression == "" {
		compression = models.CompressionMedium
	}
	fmt.Fprintf(&b, "Compression level: %s\n", compression)
	fmt.Fprintf(&b, "Metadata file included: %t\n", schedule.ExportConfig.IncludeMetadata)
	fmt.Fprintf(&b, "Manifest file included: %t\n\n", schedule.ExportConfig.IncludeManifest)

	b.WriteString("## Delivery\n\n")
	fmt.Fprintf(&b, "Method: %s\n", schedule.DeliveryConfig.Method)
	if email := schedule.DeliveryConfig.Email; email != nil {
		fmt.Fprintf(&b, "Email recipients: %s\n", strings.Join(email.Recipients, ", "))
	}
	if storage := schedule.DeliveryConfig.Storage; storage != nil {
		fmt.Fprintf(&b, "Storage provider: %s\n", storage.Provider)
		fmt.Fprintf(&b, "Storage path: %s\n", storage.Path)
	}
	b.WriteString("\n")

	b.WriteString("## Restoration\n\n")
	b.WriteString("Each `.json` file holds one entity set as a JSON array. ")
	b.WriteString("To restore, import the files through the admin import tools in this order: ")
	b.WriteString("clubs, zones, event types, users, events, schedules. ")
	b.WriteString("Consult `manifest.json` (when present) to verify file sizes and record counts before importing.\n")

	return b.String()
}
