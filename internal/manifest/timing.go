package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"slidesync/internal/timeline"
)

// Timing is the persisted form of a slide timeline, written once per stage
// into the job work directory so a rerun can skip detection.
type Timing struct {
	Video      string             `json:"video,omitempty"`
	Segments   []timeline.Segment `json:"segments"`
	SlideCount int                `json:"slide_count"`
	Duration   float64            `json:"duration"`
	Source     string             `json:"source,omitempty"`
}

// NewTiming assembles a Timing record from a segmented timeline.
func NewTiming(video string, segments []timeline.Segment, duration float64, source string) *Timing {
	seen := make(map[int]struct{})
	for _, seg := range segments {
		if seg.Label.Valid {
			seen[seg.Label.Number] = struct{}{}
		}
	}
	return &Timing{
		Video:      video,
		Segments:   segments,
		SlideCount: len(seen),
		Duration:   duration,
		Source:     source,
	}
}

// Save writes the timing file with indentation for hand inspection.
func (t *Timing) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encode timing: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write timing: %w", err)
	}
	return nil
}

// LoadTiming reads a previously saved timing file.
func LoadTiming(path string) (*Timing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timing: %w", err)
	}
	var t Timing
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse timing: %w", err)
	}
	return &t, nil
}
