package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/aerozone/backend/internal/models"
	"go.uber.org/zap"
)

// EmailAttachment is a named binary payload for the email channel.
type EmailAttachment struct {
	Filename string
	Data     []byte
}

// EmailSender queues a backup archive for email delivery. Transport and
// retries are its own concern.
type EmailSender interface {
	SendBackupArchive(ctx context.Context, recipients []string, subject string, attachment EmailAttachment) error
}

// StorageUploader stores an archive under a destination path and reports
// where it landed.
type StorageUploader interface {
	Upload(ctx context.Context, path string, data []byte) (storagePath, downloadURL string, err error)
}

type DeliveryService struct {
	email   EmailSender
	storage StorageUploader
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewDeliveryService(email EmailSender, storage StorageUploader, log *zap.SugaredLogger) *DeliveryService {
	return &DeliveryService{
		email:   email,
		storage: storage,
		log:     log,
		now:     time.Now,
	}
}

// Deliver sends the archive through every channel the schedule configures,
// recording per-channel status on exec. Channels run concurrently and are
// joined before the overall policy decision: email-only needs email to
// succeed, storage-only needs storage, and "both" needs at least one. A
// partial "both" failure is logged as a warning and remains an overall
// success, visible through the degraded delivery status.
func (s *DeliveryService) Deliver(ctx context.Context, archive []byte, schedule *models.BackupSchedule, exec *models.BackupExecution) error {
	method := schedule.DeliveryConfig.Method
	wantEmail := method == models.DeliveryMethodEmail || method == models.DeliveryMethodBoth
	wantStorage := method == models.DeliveryMethodStorage || method == models.DeliveryMethodBoth
	if !wantEmail && !wantStorage {
		return &AllDeliveryFailedError{Errs: []error{fmt.Errorf("unknown delivery method %q", method)}}
	}

	var wg sync.WaitGroup
	results := make(chan error, 2)

	if wantEmail {
		exec.DeliveryStatus.Email = models.ChannelPending
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.deliverEmail(ctx, archive, schedule); err != nil {
				exec.DeliveryStatus.Email = models.ChannelFailed
				results <- &DeliveryChannelError{Channel: "email", Err: err}
				return
			}
			exec.DeliveryStatus.Email = models.ChannelSent
			results <- nil
		}()
	}

	if wantStorage {
		exec.DeliveryStatus.Storage = models.ChannelPending
		wg.Add(1)
		go func() {
			defer wg.Done()
			storagePath, downloadURL, err := s.deliverStorage(ctx, archive, schedule)
			if err != nil {
				exec.DeliveryStatus.Storage = models.ChannelFailed
				results <- &DeliveryChannelError{Channel: "storage", Err: err}
				return
			}
			exec.DeliveryStatus.Storage = models.ChannelUploaded
			exec.StoragePath = storagePath
			exec.DownloadURL = downloadURL
			results <- nil
		}()
	}

	wg.Wait()
	close(results)

	var failures []error
	succeeded := 0
	for err := range results {
		if err != nil {
			failures = append(failures, err)
			continue
		}
		succeeded++
	}

	if succeeded == 0 {
		return &AllDeliveryFailedError{Errs: failures}
	}
	if len(failures) > 0 {
		s.log.Warnw("backup delivered through one channel only",
			"schedule", schedule.Name,
			"failures", strings.Join(errorMessages(failures), "; "))
	}
	return nil
}

func (s *DeliveryService) deliverEmail(ctx context.Context, archive []byte, schedule *models.BackupSchedule) error {
	cfg := schedule.DeliveryConfig.Email
	if cfg == nil {
		return fmt.Errorf("email delivery requested without email configuration")
	}

	recipients := validRecipients(cfg.Recipients)
	if len(recipients) == 0 {
		return fmt.Errorf("no valid email recipients configured")
	}

	sizeMB := float64(len(archive)) / (1024 * 1024)
	if cfg.MaxFileSizeMB > 0 && sizeMB > float64(cfg.MaxFileSizeMB) {
		return fmt.Errorf("archive size %.1f MB exceeds the %d MB email limit", sizeMB, cfg.MaxFileSizeMB)
	}

	date := s.now().UTC().Format("2006-01-02")
	subject := strings.ReplaceAll(cfg.Subject, "{date}", date)
	if subject == "" {
		subject = fmt.Sprintf("Backup %s - %s", schedule.Name, date)
	}

	attachment := EmailAttachment{
		Filename: fmt.Sprintf("%s-%s.zip", sanitizeName(schedule.Name), date),
		Data:     archive,
	}
	return s.email.SendBackupArchive(ctx, recipients, subject, attachment)
}

func (s *DeliveryService) deliverStorage(ctx context.Context, archive []byte, schedule *models.BackupSchedule) (string, string, error) {
	cfg := schedule.DeliveryConfig.Storage
	if cfg == nil {
		return "", "", fmt.Errorf("storage delivery requested without storage configuration")
	}
	if cfg.Provider != models.StorageProviderFirebase {
		return "", "", &UnknownProviderError{Provider: cfg.Provider}
	}

	date := s.now().UTC().Format("2006-01-02")
	base := strings.Trim(cfg.Path, "/")
	key := fmt.Sprintf("%s-%s.zip", sanitizeName(schedule.Name), date)
	if base != "" {
		key = base + "/" + key
	}
	return s.storage.Upload(ctx, key, archive)
}

func validRecipients(recipients []string) []string {
	valid := make([]string, 0, len(recipients))
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		if r != "" && strings.Contains(r, "@") {
			valid = append(valid, r)
		}
	}
	return valid
}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9-]+`)

func sanitizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = unsafeNameChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = "backup"
	}
	return name
}
