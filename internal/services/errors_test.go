package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrExternalTool, "mix", "amix", "ffmpeg exited 1", errors.New("exit status 1"))
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if errors.Is(err, ErrConfiguration) {
		t.Fatalf("unexpected configuration classification: %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "detect", "classify", "no frames", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient fallback, got %v", err)
	}
}

func TestDetailsStripsMarkerPrefix(t *testing.T) {
	err := Wrap(ErrValidation, "time", "map", "manifest is empty", nil)
	details := Details(err)
	if details.Message != "time: map: manifest is empty" {
		t.Fatalf("unexpected details message: %q", details.Message)
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name   string
		marker error
		want   bool
	}{
		{"configuration", ErrConfiguration, true},
		{"external tool", ErrExternalTool, false},
		{"validation", ErrValidation, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Wrap(tt.marker, "stage", "op", "msg", nil)
			if got := IsFatal(err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}
