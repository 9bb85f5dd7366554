// Package slides loads reference slide images and classifies sampled video
// frames against them.
package slides

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"slidesync/internal/timeline"
)

// slideNamePattern extracts the slide number from exported slide filenames
// (slide_01.png -> 1).
var slideNamePattern = regexp.MustCompile(`slide_(\d+)`)

// ReferenceSlide pairs a slide number with its pre-downscaled raster.
// Immutable once loaded; loaded once per job.
type ReferenceSlide struct {
	Number int
	Image  *Raster
}

// LoadReferences loads every slide_*.png in dir, downscaled to the given
// raster size, ordered by slide number. Returns an error when the directory
// holds no slide images; callers treat that as a configuration problem.
func LoadReferences(dir string, width, height int) ([]ReferenceSlide, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read slides dir: %w", err)
	}

	var refs []ReferenceSlide
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := slideNamePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		number, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		raster, err := LoadGrayscale(filepath.Join(dir, entry.Name()), width, height)
		if err != nil {
			return nil, fmt.Errorf("load slide %s: %w", entry.Name(), err)
		}
		refs = append(refs, ReferenceSlide{Number: number, Image: raster})
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("no slide images (slide_*.png) found in %s", dir)
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Number < refs[j].Number })
	return refs, nil
}

// ImagePath returns the expected path of a slide image inside dir, matching
// the export naming convention (two-digit zero padding).
func ImagePath(dir string, number int) string {
	return filepath.Join(dir, fmt.Sprintf("slide_%02d.png", number))
}

// Classifier scores frames against a reference slide set.
type Classifier struct {
	refs      []ReferenceSlide
	threshold float64
}

// NewClassifier builds a classifier. An empty reference set is rejected:
// there is nothing to compare against.
func NewClassifier(refs []ReferenceSlide, threshold float64) (*Classifier, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("classifier needs at least one reference slide")
	}
	return &Classifier{refs: refs, threshold: threshold}, nil
}

// Classify scores the frame against every reference and returns the best
// match. When the best score stays below the threshold the frame is reported
// as no-slide (black or transition) rather than a wrong guess.
func (c *Classifier) Classify(frame *Raster, sampleIndex int) timeline.SampleMatch {
	best := timeline.NoSlide()
	bestScore := 0.0

	for _, ref := range c.refs {
		score := SSIM(frame, ref.Image)
		if score > bestScore {
			bestScore = score
			best = timeline.SlideLabel(ref.Number)
		}
	}

	if bestScore < c.threshold {
		best = timeline.NoSlide()
	}
	return timeline.SampleMatch{Index: sampleIndex, Label: best, Score: bestScore}
}
