package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aerozone/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backupFixture struct {
	svc        *BackupService
	schedules  *fakeScheduleStore
	executions *fakeExecutionStore
	readers    *fakeReaders
	email      *fakeEmailSender
	storage    *fakeUploader
}

func newBackupFixture(scheduleList ...*models.BackupSchedule) *backupFixture {
	f := &backupFixture{
		schedules:  newFakeScheduleStore(scheduleList...),
		executions: &fakeExecutionStore{},
		readers: &fakeReaders{
			clubs: []models.Club{{Name: "North Ridge"}, {Name: "Valley Soaring"}, {Name: "Cliffside"}},
			zones: []models.Zone{{Name: "Ridge East"}, {Name: "Ridge West"}},
		},
		email:   &fakeEmailSender{},
		storage: &fakeUploader{},
	}

	export := NewExportService(f.readers, "1.4.0", testLogger())
	archive := NewArchiveService(testLogger())
	delivery := NewDeliveryService(f.email, f.storage, testLogger())
	f.svc = NewBackupService(f.schedules, f.executions, export, archive, delivery, testLogger())
	return f
}

func nightlySchedule() *models.BackupSchedule {
	next := fixedTime("2024-04-05T02:00:00Z")
	return &models.BackupSchedule{
		ID:       uuid.New(),
		Name:     "Nightly Club Backup",
		IsActive: true,
		Recurrence: models.Recurrence{
			Frequency: models.FrequencyDaily,
			Hour:      2,
		},
		ExportConfig: models.ExportConfig{
			IncludeClubs:    true,
			IncludeZones:    true,
			IncludeManifest: true,
			Compression:     models.CompressionMedium,
		},
		DeliveryConfig: models.DeliveryConfig{
			Method: models.DeliveryMethodStorage,
			Storage: &models.StorageDelivery{
				Provider: models.StorageProviderFirebase,
				Path:     "/backups",
			},
		},
		NextRun: &next,
	}
}

func TestExecuteScheduleCompletes(t *testing.T) {
	schedule := nightlySchedule()
	f := newBackupFixture(schedule)

	exec, err := f.svc.ExecuteSchedule(context.Background(), schedule, models.TriggeredBySchedule)
	require.NoError(t, err)
	require.NotNil(t, exec)

	assert.Equal(t, models.ExecutionCompleted, exec.Status)
	assert.Equal(t, schedule.ID, exec.ScheduleID)
	assert.Equal(t, schedule.Name, exec.ScheduleName)
	assert.NotNil(t, exec.EndTime)
	assert.Empty(t, exec.ErrorMessage)
	assert.Greater(t, exec.ExportSize, int64(0))
	assert.Equal(t, models.TriggeredBySchedule, exec.Metadata.TriggeredBy)
	assert.Equal(t, map[string]int{
		"events":     0,
		"users":      0,
		"clubs":      3,
		"zones":      2,
		"eventTypes": 0,
	}, exec.Metadata.ExportedRecords)
	assert.Equal(t, models.ChannelUploaded, exec.DeliveryStatus.Storage)
	assert.NotEmpty(t, exec.StoragePath)

	// exactly one execution record, appended at the terminal transition
	require.Len(t, f.executions.appended, 1)
	assert.Equal(t, models.ExecutionCompleted, f.executions.appended[0].Status)

	// counters and next run were advanced
	stored, err := f.schedules.GetByID(schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalRuns)
	assert.Equal(t, 1, stored.SuccessfulRuns)
	assert.Equal(t, 0, stored.FailedRuns)
	require.NotNil(t, stored.LastRun)
	require.NotNil(t, stored.NextRun)
	assert.True(t, stored.NextRun.After(*stored.LastRun))
}

func TestExecuteScheduleExportFailure(t *testing.T) {
	schedule := nightlySchedule()
	f := newBackupFixture(schedule)
	f.readers.zonesErr = errors.New("connection reset")

	exec, err := f.svc.ExecuteSchedule(context.Background(), schedule, models.TriggeredBySchedule)
	require.Error(t, err)
	require.NotNil(t, exec)

	assert.Equal(t, models.ExecutionFailed, exec.Status)
	assert.Contains(t, exec.ErrorMessage, "zones")
	assert.Equal(t, int64(0), exec.ExportSize)
	assert.Empty(t, f.storage.uploads)

	// the failure still produces exactly one terminal record
	require.Len(t, f.executions.appended, 1)
	assert.Equal(t, models.ExecutionFailed, f.executions.appended[0].Status)

	stored, err := f.schedules.GetByID(schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalRuns)
	assert.Equal(t, 0, stored.SuccessfulRuns)
	assert.Equal(t, 1, stored.FailedRuns)
	require.NotNil(t, stored.NextRun)
}

func TestExecuteScheduleCounterInvariant(t *testing.T) {
	schedule := nightlySchedule()
	f := newBackupFixture(schedule)

	for i := 0; i < 3; i++ {
		_, err := f.svc.ExecuteSchedule(context.Background(), schedule, models.TriggeredByManual)
		require.NoError(t, err)
	}
	f.readers.clubsErr = errors.New("connection reset")
	for i := 0; i < 2; i++ {
		_, err := f.svc.ExecuteSchedule(context.Background(), schedule, models.TriggeredByManual)
		require.Error(t, err)
	}

	stored, err := f.schedules.GetByID(schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.TotalRuns)
	assert.Equal(t, 3, stored.SuccessfulRuns)
	assert.Equal(t, 2, stored.FailedRuns)
	assert.Equal(t, stored.TotalRuns, stored.SuccessfulRuns+stored.FailedRuns)
}

func TestRunDueIsolatesFailures(t *testing.T) {
	broken := nightlySchedule()
	broken.Name = "Broken Backup"
	broken.DeliveryConfig.Storage.Provider = "gcs"
	healthy := nightlySchedule()
	healthy.Name = "Healthy Backup"

	f := newBackupFixture(broken, healthy)
	f.svc.now = func() time.Time { return fixedTime("2024-04-05T02:30:00Z") }

	executions := f.svc.RunDue(context.Background())
	require.Len(t, executions, 2)

	byName := make(map[string]*models.BackupExecution)
	for _, exec := range executions {
		byName[exec.ScheduleName] = exec
	}
	assert.Equal(t, models.ExecutionFailed, byName["Broken Backup"].Status)
	assert.Equal(t, models.ExecutionCompleted, byName["Healthy Backup"].Status)
	assert.Len(t, f.storage.uploads, 1)
}

func TestRunDueSkipsInactiveAndFuture(t *testing.T) {
	inactive := nightlySchedule()
	inactive.IsActive = false
	future := nightlySchedule()
	futureRun := fixedTime("2024-04-06T02:00:00Z")
	future.NextRun = &futureRun

	f := newBackupFixture(inactive, future)
	f.svc.now = func() time.Time { return fixedTime("2024-04-05T02:30:00Z") }

	executions := f.svc.RunDue(context.Background())
	assert.Empty(t, executions)
	assert.Empty(t, f.executions.appended)
}

func TestRunDueListFailure(t *testing.T) {
	f := newBackupFixture(nightlySchedule())
	f.schedules.dueErr = errors.New("database unavailable")

	executions := f.svc.RunDue(context.Background())
	assert.Nil(t, executions)
}

func TestRunScheduleByID(t *testing.T) {
	schedule := nightlySchedule()
	f := newBackupFixture(schedule)

	exec, err := f.svc.RunScheduleByID(context.Background(), schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionCompleted, exec.Status)
	assert.Equal(t, models.TriggeredByManual, exec.Metadata.TriggeredBy)
}

func TestRunScheduleByIDNotFound(t *testing.T) {
	f := newBackupFixture()

	_, err := f.svc.RunScheduleByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestGetBackupStatsEmpty(t *testing.T) {
	f := newBackupFixture()

	stats, err := f.svc.GetBackupStats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalSchedules)
	assert.Equal(t, int64(0), stats.TotalExecutions)
	assert.Nil(t, stats.LastSuccess)
	assert.Nil(t, stats.NextScheduledRun)
	assert.Equal(t, int64(0), stats.AvgDurationMillis)
}

func TestGetBackupStats(t *testing.T) {
	early := nightlySchedule()
	earlyRun := fixedTime("2024-04-05T02:00:00Z")
	early.NextRun = &earlyRun
	late := nightlySchedule()
	lateRun := fixedTime("2024-04-06T02:00:00Z")
	late.NextRun = &lateRun
	inactive := nightlySchedule()
	inactive.IsActive = false

	f := newBackupFixture(early, late, inactive)

	end1 := fixedTime("2024-04-04T02:00:05Z")
	end2 := fixedTime("2024-04-05T02:00:07Z")
	require.NoError(t, f.executions.Append(&models.BackupExecution{
		ID: uuid.New(), ScheduleID: early.ID, Status: models.ExecutionCompleted,
		EndTime: &end1, ExportSize: 2048,
		Metadata: models.ExecutionMetadata{DurationMillis: 5000},
	}))
	require.NoError(t, f.executions.Append(&models.BackupExecution{
		ID: uuid.New(), ScheduleID: early.ID, Status: models.ExecutionFailed,
	}))
	require.NoError(t, f.executions.Append(&models.BackupExecution{
		ID: uuid.New(), ScheduleID: late.ID, Status: models.ExecutionCompleted,
		EndTime: &end2, ExportSize: 4096,
		Metadata: models.ExecutionMetadata{DurationMillis: 7000},
	}))

	stats, err := f.svc.GetBackupStats()
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalSchedules)
	assert.Equal(t, int64(2), stats.ActiveSchedules)
	assert.Equal(t, int64(3), stats.TotalExecutions)
	assert.Equal(t, int64(2), stats.SuccessfulExecutions)
	assert.Equal(t, int64(1), stats.FailedExecutions)
	assert.Equal(t, int64(6144), stats.TotalExportedBytes)
	assert.Equal(t, int64(6000), stats.AvgDurationMillis)
	require.NotNil(t, stats.LastSuccess)
	assert.Equal(t, end2, *stats.LastSuccess)
	require.NotNil(t, stats.NextScheduledRun)
	assert.Equal(t, earlyRun, *stats.NextScheduledRun)
}

func TestGetBackupStatsTotalSpansBeyondWindow(t *testing.T) {
	f := newBackupFixture()

	end := fixedTime("2024-04-05T02:00:05Z")
	for i := 0; i < statsWindow+5; i++ {
		require.NoError(t, f.executions.Append(&models.BackupExecution{
			ID: uuid.New(), ScheduleID: uuid.New(), Status: models.ExecutionCompleted,
			EndTime: &end, ExportSize: 100,
			Metadata: models.ExecutionMetadata{DurationMillis: 1000},
		}))
	}

	stats, err := f.svc.GetBackupStats()
	require.NoError(t, err)

	// the total covers the whole history, the windowed counts do not
	assert.Equal(t, int64(statsWindow+5), stats.TotalExecutions)
	assert.Equal(t, int64(statsWindow), stats.SuccessfulExecutions)
	assert.Equal(t, int64(statsWindow)*100, stats.TotalExportedBytes)
}
