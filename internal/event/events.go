package event

import (
	"time"
)

// Event is the interface for all exporter lifecycle events.
type Event interface {
	// EventName returns the name of the event
	EventName() string
	// OccurredAt returns when the event occurred
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func now() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// SearchStarted is raised when envelope discovery begins for a date range.
type SearchStarted struct {
	BaseEvent
	From time.Time
	To   time.Time
}

// EventName returns the event name
func (e SearchStarted) EventName() string { return "search.started" }

// NewSearchStarted creates a new SearchStarted event
func NewSearchStarted(from, to time.Time) SearchStarted {
	return SearchStarted{BaseEvent: now(), From: from, To: to}
}

// PageFound is raised after each discovery page is appended to the
// result set. Total is the running envelope count.
type PageFound struct {
	BaseEvent
	Count int
	Total int
}

// EventName returns the event name
func (e PageFound) EventName() string { return "page.found" }

// NewPageFound creates a new PageFound event
func NewPageFound(count, total int) PageFound {
	return PageFound{BaseEvent: now(), Count: count, Total: total}
}

// DownloadStarted is raised when an envelope download is dispatched.
type DownloadStarted struct {
	BaseEvent
	EnvelopeID string
}

// EventName returns the event name
func (e DownloadStarted) EventName() string { return "download.started" }

// NewDownloadStarted creates a new DownloadStarted event
func NewDownloadStarted(envelopeID string) DownloadStarted {
	return DownloadStarted{BaseEvent: now(), EnvelopeID: envelopeID}
}

// DownloadProgress is raised after an envelope download completes
// successfully. Percent is completed downloads over total discovered.
type DownloadProgress struct {
	BaseEvent
	EnvelopeID string
	Percent    float64
}

// EventName returns the event name
func (e DownloadProgress) EventName() string { return "download.progress" }

// NewDownloadProgress creates a new DownloadProgress event
func NewDownloadProgress(envelopeID string, percent float64) DownloadProgress {
	return DownloadProgress{BaseEvent: now(), EnvelopeID: envelopeID, Percent: percent}
}

// DownloadFailed is raised when a single envelope download fails.
// The batch continues; the failure is isolated to this envelope.
type DownloadFailed struct {
	BaseEvent
	EnvelopeID string
	Error      string
}

// EventName returns the event name
func (e DownloadFailed) EventName() string { return "download.failed" }

// NewDownloadFailed creates a new DownloadFailed event
func NewDownloadFailed(envelopeID, errMsg string) DownloadFailed {
	return DownloadFailed{BaseEvent: now(), EnvelopeID: envelopeID, Error: errMsg}
}

// Retrying is raised before the executor re-dispatches a retryable
// request. Delay is the backoff the executor is about to sleep.
type Retrying struct {
	BaseEvent
	Attempt int
	Delay   time.Duration
	Cause   string
}

// EventName returns the event name
func (e Retrying) EventName() string { return "retrying" }

// NewRetrying creates a new Retrying event
func NewRetrying(attempt int, delay time.Duration, cause string) Retrying {
	return Retrying{BaseEvent: now(), Attempt: attempt, Delay: delay, Cause: cause}
}

// TokenExpired is raised exactly once per 401 response. It is terminal
// for the whole session; reauthentication is required.
type TokenExpired struct {
	BaseEvent
}

// EventName returns the event name
func (e TokenExpired) EventName() string { return "token.expired" }

// NewTokenExpired creates a new TokenExpired event
func NewTokenExpired() TokenExpired {
	return TokenExpired{BaseEvent: now()}
}

// BatchComplete is the last event of a download batch. Total counts
// successful downloads only.
type BatchComplete struct {
	BaseEvent
	Total int
}

// EventName returns the event name
func (e BatchComplete) EventName() string { return "batch.complete" }

// NewBatchComplete creates a new BatchComplete event
func NewBatchComplete(total int) BatchComplete {
	return BatchComplete{BaseEvent: now(), Total: total}
}

// Cancelled is raised once when the session cancel flag is set.
type Cancelled struct {
	BaseEvent
}

// EventName returns the event name
func (e Cancelled) EventName() string { return "cancelled" }

// NewCancelled creates a new Cancelled event
func NewCancelled() Cancelled {
	return Cancelled{BaseEvent: now()}
}
