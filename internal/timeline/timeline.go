// Package timeline builds and maps slide timelines from per-sample
// classification results.
package timeline

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Label identifies the reference slide shown at a point in time. The zero
// value means "no slide" (black or transition content) and serializes as JSON
// null, matching the timing file format.
type Label struct {
	Number int
	Valid  bool
}

// SlideLabel returns the label for slide number n.
func SlideLabel(n int) Label {
	return Label{Number: n, Valid: true}
}

// NoSlide returns the null label.
func NoSlide() Label {
	return Label{}
}

func (l Label) String() string {
	if !l.Valid {
		return "none"
	}
	return strconv.Itoa(l.Number)
}

// MarshalJSON writes the slide number, or null for the no-slide label.
func (l Label) MarshalJSON() ([]byte, error) {
	if !l.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(l.Number)
}

// UnmarshalJSON accepts a slide number or null.
func (l *Label) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = Label{}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("slide label: %w", err)
	}
	*l = Label{Number: n, Valid: true}
	return nil
}

// SampleMatch is the classification result for one uniformly-sampled instant.
type SampleMatch struct {
	// Index is the sample ordinal in extraction order; the timestamp in
	// seconds is Index divided by the sampling rate.
	Index int
	Label Label
	// Score is the similarity score of the winning reference, in [0,1].
	Score float64
}

// Segment is a contiguous span of the timeline showing one slide.
type Segment struct {
	Label Label   `json:"slide"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Interval is a half-open time span [Start, End) on some timeline.
type Interval struct {
	Start float64
	End   float64
}

// Midpoint returns the center of the interval.
func (iv Interval) Midpoint() float64 {
	return (iv.Start + iv.End) / 2
}
