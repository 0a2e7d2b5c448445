package services

import (
	"errors"
	"fmt"
	"strings"
)

// ErrScheduleNotFound is returned to manual-trigger callers when the
// requested schedule does not exist.
var ErrScheduleNotFound = errors.New("backup schedule not found")

// ExportAggregationError aborts an execution before any archive or delivery
// work happens.
type ExportAggregationError struct {
	Err error
}

func (e *ExportAggregationError) Error() string {
	return fmt.Sprintf("export aggregation failed: %v", e.Err)
}

func (e *ExportAggregationError) Unwrap() error { return e.Err }

// ArchiveBuildError aborts an execution before delivery.
type ArchiveBuildError struct {
	Err error
}

func (e *ArchiveBuildError) Error() string {
	return fmt.Sprintf("archive build failed: %v", e.Err)
}

func (e *ArchiveBuildError) Unwrap() error { return e.Err }

// DeliveryChannelError is the failure of a single delivery channel. It is
// tolerated individually when the schedule delivers through both channels.
type DeliveryChannelError struct {
	Channel string
	Err     error
}

func (e *DeliveryChannelError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Channel, e.Err)
}

func (e *DeliveryChannelError) Unwrap() error { return e.Err }

// AllDeliveryFailedError is raised when the overall delivery policy is not
// met. It keeps every channel's error in the chain so callers can still
// match the per-channel kinds with errors.As.
type AllDeliveryFailedError struct {
	Errs []error
}

func (e *AllDeliveryFailedError) Error() string {
	return "all delivery channels failed: " + strings.Join(errorMessages(e.Errs), "; ")
}

func (e *AllDeliveryFailedError) Unwrap() []error { return e.Errs }

func errorMessages(errs []error) []string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return msgs
}

// UnknownProviderError marks a storage provider with no wired uploader.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("storage provider %q is not implemented", e.Provider)
}
