package job

import "time"

// JobResult is the outcome of a completed job. The runner stores every
// result as JobResult[any]; callers that know the concrete data type for a
// given job use As[T] to get a typed copy back.
type JobResult[T any] struct {
	Success        bool
	Data           T
	Error          string
	ErrorTraceback string
	Warnings       []string
	Artifacts      map[string]any
	StartTime      time.Time
	EndTime        time.Time
}

// DurationSeconds is EndTime-StartTime; ok is false if either is zero.
func (r JobResult[T]) DurationSeconds() (seconds float64, ok bool) {
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return 0, false
	}
	return r.EndTime.Sub(r.StartTime).Seconds(), true
}

// As converts a JobResult[any] into a JobResult[T], type-asserting Data. ok
// is false if Data is non-nil and not assignable to T; on failure the
// returned result still carries every other field so a caller can still
// inspect Success/Error/Warnings.
func As[T any](r JobResult[any]) (result JobResult[T], ok bool) {
	result = JobResult[T]{
		Success:        r.Success,
		Error:          r.Error,
		ErrorTraceback: r.ErrorTraceback,
		Warnings:       r.Warnings,
		Artifacts:      r.Artifacts,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
	}
	if r.Data == nil {
		return result, true
	}
	data, assignable := r.Data.(T)
	if !assignable {
		return result, false
	}
	result.Data = data
	return result, true
}
