package metrics

import "time"

// FetchResult enumerates per-member poll outcomes.
type FetchResult string

const (
	FetchSuccess FetchResult = "success"
	FetchFailure FetchResult = "failure"
	FetchSkipped FetchResult = "skipped"
)

// Recorder defines observability hooks for the poll loop. Implementations
// may forward to Prometheus; NoopRecorder is the default.
type Recorder interface {
	ObserveFetchDuration(d time.Duration, result FetchResult)
	IncFetchResult(result FetchResult)
	AddActivitiesEmitted(n int)
	IncNotification(sink string, success bool)
	IncStateSave(success bool)
	SetRosterSize(n int)
	SetUntrackable(n int)
	ObservePassDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveFetchDuration(time.Duration, FetchResult) {}
func (NoopRecorder) IncFetchResult(FetchResult)                      {}
func (NoopRecorder) AddActivitiesEmitted(int)                        {}
func (NoopRecorder) IncNotification(string, bool)                    {}
func (NoopRecorder) IncStateSave(bool)                               {}
func (NoopRecorder) SetRosterSize(int)                               {}
func (NoopRecorder) SetUntrackable(int)                              {}
func (NoopRecorder) ObservePassDuration(time.Duration)               {}
