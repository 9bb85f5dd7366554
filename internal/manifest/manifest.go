// Package manifest defines the JSON contracts shared across pipeline stages:
// the speech-segment manifest produced by the translation pipeline and the
// timing files written to the job work directory.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"slidesync/internal/timeline"
)

// SpeechSegment describes one translated narration segment and where it
// belongs on the target timeline.
type SpeechSegment struct {
	Index int `json:"index"`
	// Start/End are the segment's slot on the assembled timeline, in seconds.
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	// AudioFile is the rendered narration audio, relative to the manifest
	// location unless absolute.
	AudioFile string `json:"audio_file"`
	// NaturalDuration is the unmodified length of AudioFile in seconds. Zero
	// means unknown; the mixer probes the file instead.
	NaturalDuration float64 `json:"natural_duration,omitempty"`
}

// Slot returns the segment's allotted timeline duration.
func (s SpeechSegment) Slot() float64 {
	return s.End - s.Start
}

// Interval returns the segment's placement span.
func (s SpeechSegment) Interval() timeline.Interval {
	return timeline.Interval{Start: s.Start, End: s.End}
}

// SpeechManifest is the input contract for the time and mix stages.
type SpeechManifest struct {
	// Duration is the total length of the assembled narration timeline.
	Duration float64         `json:"duration"`
	Segments []SpeechSegment `json:"segments"`
}

// Intervals returns the placement spans of all segments, in order.
func (m *SpeechManifest) Intervals() []timeline.Interval {
	spans := make([]timeline.Interval, len(m.Segments))
	for i, seg := range m.Segments {
		spans[i] = seg.Interval()
	}
	return spans
}

// Validate checks the manifest is internally consistent. Zero or negative
// slots are legal here (the mixer skips them with a warning); ordering and
// file references are not negotiable.
func (m *SpeechManifest) Validate() error {
	if m.Duration <= 0 {
		return errors.New("manifest duration must be positive")
	}
	for i, seg := range m.Segments {
		if strings.TrimSpace(seg.AudioFile) == "" {
			return fmt.Errorf("segment %d: audio_file must be set", i)
		}
		if seg.NaturalDuration < 0 {
			return fmt.Errorf("segment %d: natural_duration must be >= 0", i)
		}
		if i > 0 && seg.Start < m.Segments[i-1].Start {
			return fmt.Errorf("segment %d: segments must be ordered by start", i)
		}
	}
	return nil
}

// LoadSpeechManifest reads and validates a speech manifest file.
func LoadSpeechManifest(path string) (*SpeechManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m SpeechManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}
