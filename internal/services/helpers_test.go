package services

import (
	"context"
	"sync"
	"time"

	"github.com/aerozone/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// fakeScheduleStore keeps schedules in memory and applies RecordRun counter
// updates the way the SQL store does.
type fakeScheduleStore struct {
	mu        sync.Mutex
	schedules map[uuid.UUID]*models.BackupSchedule
	listErr   error
	dueErr    error
}

func newFakeScheduleStore(schedules ...*models.BackupSchedule) *fakeScheduleStore {
	store := &fakeScheduleStore{schedules: make(map[uuid.UUID]*models.BackupSchedule)}
	for _, s := range schedules {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		store.schedules[s.ID] = s
	}
	return store
}

func (f *fakeScheduleStore) Create(schedule *models.BackupSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	f.schedules[schedule.ID] = schedule
	return nil
}

func (f *fakeScheduleStore) GetByID(id uuid.UUID) (*models.BackupSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.schedules[id], nil
}

func (f *fakeScheduleStore) List(offset, limit int) ([]*models.BackupSchedule, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	out := make([]*models.BackupSchedule, 0, len(f.schedules))
	for _, s := range f.schedules {
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (f *fakeScheduleStore) Update(schedule *models.BackupSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedules[schedule.ID] = schedule
	return nil
}

func (f *fakeScheduleStore) Delete(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.schedules, id)
	return nil
}

func (f *fakeScheduleStore) ListDue(now time.Time) ([]*models.BackupSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dueErr != nil {
		return nil, f.dueErr
	}
	var due []*models.BackupSchedule
	for _, s := range f.schedules {
		if s.IsActive && s.NextRun != nil && !s.NextRun.After(now) {
			due = append(due, s)
		}
	}
	return due, nil
}

func (f *fakeScheduleStore) RecordRun(id uuid.UUID, lastRun time.Time, succeeded bool, nextRun *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok {
		return nil
	}
	s.LastRun = &lastRun
	s.NextRun = nextRun
	s.TotalRuns++
	if succeeded {
		s.SuccessfulRuns++
	} else {
		s.FailedRuns++
	}
	return nil
}

type fakeExecutionStore struct {
	mu       sync.Mutex
	appended []*models.BackupExecution
	err      error
}

func (f *fakeExecutionStore) Append(exec *models.BackupExecution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, exec)
	return nil
}

func (f *fakeExecutionStore) ListBySchedule(scheduleID uuid.UUID, limit int) ([]*models.BackupExecution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.BackupExecution
	for i := len(f.appended) - 1; i >= 0; i-- {
		if f.appended[i].ScheduleID == scheduleID {
			out = append(out, f.appended[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeExecutionStore) Count() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.appended)), nil
}

func (f *fakeExecutionStore) ListRecent(limit int) ([]*models.BackupExecution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.BackupExecution
	for i := len(f.appended) - 1; i >= 0; i-- {
		out = append(out, f.appended[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// fakeReaders serves canned entity sets and injectable per-set errors.
type fakeReaders struct {
	clubs         []models.Club
	zones         []models.Zone
	eventTypes    []models.EventType
	events        []models.Event
	users         []models.User
	zoneSchedules []models.ZoneSchedule

	clubsErr      error
	zonesErr      error
	eventTypesErr error
}

func (f *fakeReaders) ListClubs(ctx context.Context) ([]models.Club, error) {
	return f.clubs, f.clubsErr
}

func (f *fakeReaders) ListZones(ctx context.Context) ([]models.Zone, error) {
	return f.zones, f.zonesErr
}

func (f *fakeReaders) ListEventTypes(ctx context.Context) ([]models.EventType, error) {
	return f.eventTypes, f.eventTypesErr
}

func (f *fakeReaders) ListEvents(ctx context.Context) ([]models.Event, error) {
	return f.events, nil
}

func (f *fakeReaders) ListUsers(ctx context.Context) ([]models.User, error) {
	return f.users, nil
}

func (f *fakeReaders) ListZoneSchedules(ctx context.Context) ([]models.ZoneSchedule, error) {
	return f.zoneSchedules, nil
}

type sentEmail struct {
	recipients []string
	subject    string
	attachment EmailAttachment
}

type fakeEmailSender struct {
	mu   sync.Mutex
	err  error
	sent []sentEmail
}

func (f *fakeEmailSender) SendBackupArchive(ctx context.Context, recipients []string, subject string, attachment EmailAttachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{recipients: recipients, subject: subject, attachment: attachment})
	return nil
}

type fakeUploader struct {
	mu      sync.Mutex
	err     error
	uploads []string
}

func (f *fakeUploader) Upload(ctx context.Context, path string, data []byte) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", "", f.err
	}
	f.uploads = append(f.uploads, path)
	return "backups-bucket/" + path, "https://storage.example.com/backups-bucket/" + path, nil
}

func intPtr(v int) *int { return &v }

func fixedTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}
