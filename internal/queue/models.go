package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an assembly job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusDetecting  Status = "detecting"
	StatusDetected   Status = "detected"
	StatusTiming     Status = "timing"
	StatusTimed      Status = "timed"
	StatusMixing     Status = "mixing"
	StatusMixed      Status = "mixed"
	StatusAssembling Status = "assembling"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	// StatusReview marks jobs whose failure needs manual intervention
	// (bad configuration or inputs) rather than a retry.
	StatusReview Status = "review"
)

var allStatuses = []Status{
	StatusPending,
	StatusDetecting,
	StatusDetected,
	StatusTiming,
	StatusTimed,
	StatusMixing,
	StatusMixed,
	StatusAssembling,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDetecting:  {},
	StatusTiming:     {},
	StatusMixing:     {},
	StatusAssembling: {},
}

type statusTransition struct {
	from Status
	to   Status
}

// stageRollbackTransitions map an interrupted in-flight status back to the
// status that re-triggers the same stage. Applied at startup so jobs killed
// mid-stage resume instead of sticking.
var stageRollbackTransitions = []statusTransition{
	{from: StatusDetecting, to: StatusPending},
	{from: StatusTiming, to: StatusDetected},
	{from: StatusMixing, to: StatusTimed},
	{from: StatusAssembling, to: StatusMixed},
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Review     int
	Completed  int
}

// Job represents an assembly job persisted in SQLite.
type Job struct {
	ID int64
	// Title names the job in CLI output; inferred from the video filename
	// when not provided.
	Title string
	// VideoPath is the source narrated slide video whose timeline anchors
	// the reference detection.
	VideoPath string
	// SlidesDir holds the reference slide images (slide_NN.png).
	SlidesDir string
	// ManifestPath is the translated speech-segment manifest.
	ManifestPath string
	Status       Status
	// WorkDir is the per-job scratch directory holding all intermediate
	// artifacts; deterministic names make reruns resumable.
	WorkDir          string
	TimingPath       string
	TargetTimingPath string
	MixedAudioPath   string
	FinalFile        string
	SourceDuration   float64
	SegmentCount     int
	TruncatedCount   int
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ProgressStage    string
	ProgressPercent  float64
	ProgressMessage  string
	NeedsReview      bool
	ReviewReason     string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight stage.
func (j Job) IsProcessing() bool {
	return IsProcessingStatus(j.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether a status ends the lifecycle.
func IsTerminal(status Status) bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusReview
}

// InitProgress resets progress fields for a new stage. ErrorMessage is
// cleared so a resumed job does not carry a stale failure.
func (j *Job) InitProgress(stage, message string) {
	j.ProgressStage = stage
	j.ProgressMessage = message
	j.ProgressPercent = 0
	j.ErrorMessage = ""
}

// SetProgress updates all three progress fields together.
func (j *Job) SetProgress(stage, message string, percent float64) {
	j.ProgressStage = stage
	j.ProgressMessage = message
	j.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (j *Job) SetProgressComplete(stage, message string) {
	j.SetProgress(stage, message, 100)
}

// SetFailed marks the job as failed with the given error message.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.ProgressPercent = 0
	j.ProgressMessage = message
	j.ProgressStage = "Failed"
}

// SetReview parks the job for manual intervention.
func (j *Job) SetReview(reason string) {
	j.Status = StatusReview
	j.NeedsReview = true
	j.ReviewReason = reason
	j.ErrorMessage = reason
	j.ProgressPercent = 0
	j.ProgressMessage = reason
	j.ProgressStage = "Review"
}
