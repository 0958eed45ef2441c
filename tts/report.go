package tts

import "time"

// Artifact is the externally visible result of one conversion request: a
// persisted audio file and its descriptive metadata.
type Artifact struct {
	Path     string        // Absolute or output-dir-relative file path
	Bytes    int64         // File size on disk
	Duration time.Duration // Audio duration
	Format   string        // Format tag the file was written in
}

// ItemResult is the outcome of converting one top-level text. A degraded
// item produced an artifact from a subset of its units; FailedUnits lists
// the unit indices that failed synthesis.
type ItemResult struct {
	Index       int
	Artifact    *Artifact // nil when Err is set
	Err         error
	FailedUnits []int
}

// OK reports whether the item produced an artifact.
func (r ItemResult) OK() bool {
	return r.Err == nil && r.Artifact != nil
}

// Degraded reports whether the item produced an artifact despite failed units.
func (r ItemResult) Degraded() bool {
	return r.OK() && len(r.FailedUnits) > 0
}

// QAPair is one question/answer item. Only the answer is spoken unless the
// caller opts into voicing questions.
type QAPair struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// BatchReport aggregates per-item outcomes of one batch call. Items appear
// in input order regardless of individual failures.
type BatchReport struct {
	Items         []ItemResult
	Succeeded     int
	Failed        int
	TotalBytes    int64
	TotalDuration time.Duration
}

// Add appends an item result and updates the aggregate counters.
func (r *BatchReport) Add(item ItemResult) {
	r.Items = append(r.Items, item)
	if item.OK() {
		r.Succeeded++
		r.TotalBytes += item.Artifact.Bytes
		r.TotalDuration += item.Artifact.Duration
	} else {
		r.Failed++
	}
}

// Total returns the number of processed items.
func (r *BatchReport) Total() int {
	return len(r.Items)
}
