package slides

import (
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"slidesync/internal/timeline"
)

func writePNG(t *testing.T, path string, fill func(x, y int) color.Color, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill(x, y))
		}
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatal(err)
	}
}

func uniform(v uint8) func(x, y int) color.Color {
	return func(x, y int) color.Color { return color.Gray{Y: v} }
}

// checker produces high-contrast structure that survives downscaling.
func checker(size int, a, b uint8) func(x, y int) color.Color {
	return func(x, y int) color.Color {
		if ((x/size)+(y/size))%2 == 0 {
			return color.Gray{Y: a}
		}
		return color.Gray{Y: b}
	}
}

func rasterFrom(fill func(x, y int) color.Color, srcW, srcH, w, h int) *Raster {
	img := image.NewRGBA(image.Rect(0, 0, srcW, srcH))
	for y := 0; y < srcH; y++ {
		for x := 0; x < srcW; x++ {
			img.Set(x, y, fill(x, y))
		}
	}
	return rasterize(img, w, h)
}

func TestSSIMIdenticalIsOne(t *testing.T) {
	a := rasterFrom(checker(8, 0, 255), 128, 128, 64, 64)
	if got := SSIM(a, a); got < 0.999 {
		t.Fatalf("SSIM(a,a) = %v, want ~1", got)
	}
}

func TestSSIMDistinctStructuresScoreLow(t *testing.T) {
	a := rasterFrom(checker(8, 0, 255), 128, 128, 64, 64)
	b := rasterFrom(uniform(128), 128, 128, 64, 64)
	if got := SSIM(a, b); got > 0.4 {
		t.Fatalf("SSIM(checker, flat) = %v, want low", got)
	}
}

func TestSSIMSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := NewRaster(32, 32)
	b := NewRaster(32, 32)
	for i := range a.Pix {
		a.Pix[i] = float64(rng.Intn(256))
		b.Pix[i] = float64(rng.Intn(256))
	}
	if SSIM(a, b) != SSIM(b, a) {
		t.Fatal("SSIM must be symmetric")
	}
}

func TestSSIMSizeMismatchIsZero(t *testing.T) {
	if got := SSIM(NewRaster(8, 8), NewRaster(16, 16)); got != 0 {
		t.Fatalf("mismatched sizes = %v, want 0", got)
	}
}

func TestLoadGrayscaleDownscales(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slide_01.png")
	writePNG(t, path, uniform(200), 192, 108)

	raster, err := LoadGrayscale(path, 96, 54)
	if err != nil {
		t.Fatalf("LoadGrayscale: %v", err)
	}
	if raster.Width != 96 || raster.Height != 54 {
		t.Fatalf("raster size = %dx%d", raster.Width, raster.Height)
	}
	// Uniform input stays uniform after averaging.
	for i, v := range raster.Pix {
		if v < 195 || v > 205 {
			t.Fatalf("pixel %d = %v, want ~200", i, v)
		}
	}
}

func TestLoadReferencesParsesAndOrders(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "slide_10.png"), uniform(10), 32, 18)
	writePNG(t, filepath.Join(dir, "slide_02.png"), uniform(20), 32, 18)
	writePNG(t, filepath.Join(dir, "notes.txt.png"), uniform(30), 32, 18) // no slide number, skipped
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	refs, err := LoadReferences(dir, 16, 9)
	if err != nil {
		t.Fatalf("LoadReferences: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("refs = %d, want 2", len(refs))
	}
	if refs[0].Number != 2 || refs[1].Number != 10 {
		t.Fatalf("order = %d,%d, want 2,10", refs[0].Number, refs[1].Number)
	}
}

func TestLoadReferencesEmptyDirFails(t *testing.T) {
	if _, err := LoadReferences(t.TempDir(), 16, 9); err == nil {
		t.Fatal("expected error for empty slide directory")
	}
}

func TestClassifierRequiresReferences(t *testing.T) {
	if _, err := NewClassifier(nil, 0.4); err == nil {
		t.Fatal("expected error for empty reference set")
	}
}

func TestClassifierPicksBestMatch(t *testing.T) {
	refA := rasterFrom(checker(8, 0, 255), 128, 128, 64, 64)
	refB := rasterFrom(checker(16, 32, 224), 128, 128, 64, 64)
	classifier, err := NewClassifier([]ReferenceSlide{
		{Number: 1, Image: refA},
		{Number: 2, Image: refB},
	}, 0.4)
	if err != nil {
		t.Fatal(err)
	}

	match := classifier.Classify(refB, 7)
	if match.Label != timeline.SlideLabel(2) {
		t.Fatalf("label = %v, want slide 2 (score %v)", match.Label, match.Score)
	}
	if match.Index != 7 {
		t.Fatalf("index = %d", match.Index)
	}
	if match.Score < 0.999 {
		t.Fatalf("score = %v, want ~1 for identical raster", match.Score)
	}
}

func TestClassifierThresholdFallsBackToNoSlide(t *testing.T) {
	ref := rasterFrom(checker(8, 0, 255), 128, 128, 64, 64)
	classifier, err := NewClassifier([]ReferenceSlide{{Number: 1, Image: ref}}, 0.4)
	if err != nil {
		t.Fatal(err)
	}

	black := rasterFrom(uniform(0), 128, 128, 64, 64)
	match := classifier.Classify(black, 0)
	if match.Label != timeline.NoSlide() {
		t.Fatalf("label = %v, want no-slide for sub-threshold score %v", match.Label, match.Score)
	}
}

func TestImagePath(t *testing.T) {
	if got := ImagePath("/slides", 3); got != filepath.Join("/slides", "slide_03.png") {
		t.Fatalf("ImagePath = %q", got)
	}
}
