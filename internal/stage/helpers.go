package stage

import (
	"slidesync/internal/manifest"
	"slidesync/internal/services"
)

// LoadTiming reads a timing file produced by an earlier stage. On failure it
// returns a services.ErrValidation suitable for stage Execute methods.
func LoadTiming(path string) (*manifest.Timing, error) {
	timing, err := manifest.LoadTiming(path)
	if err != nil {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "load timing",
			"Timing file missing or invalid; rerun the earlier stage", err)
	}
	return timing, nil
}

// LoadSpeechManifest reads and validates the translated speech manifest. On
// failure it returns a services.ErrValidation suitable for stage Execute
// methods.
func LoadSpeechManifest(path string) (*manifest.SpeechManifest, error) {
	speech, err := manifest.LoadSpeechManifest(path)
	if err != nil {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "load speech manifest",
			"Speech manifest missing or invalid", err)
	}
	return speech, nil
}
