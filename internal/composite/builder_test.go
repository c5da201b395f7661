package composite

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/revibe-studio/revibe/internal/models"
	"github.com/revibe-studio/revibe/internal/session"
)

func writeTestPNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write test image: %v", err)
	}
}

func testSession(t *testing.T) *session.Session {
	t.Helper()
	manager := session.NewManager(t.TempDir())
	sess, err := manager.NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return sess
}

func testParams() Params {
	return Params{ThumbSize: 150, MaxBaseDim: 768, MaxDim: 1024, Columns: 3}
}

func candidateFixtures(t *testing.T, dir string, n int) []models.ProductCandidate {
	t.Helper()
	colors := []color.Color{
		color.RGBA{R: 200, G: 80, B: 60, A: 255},
		color.RGBA{R: 60, G: 120, B: 200, A: 255},
		color.RGBA{R: 90, G: 180, B: 90, A: 255},
		color.RGBA{R: 220, G: 200, B: 80, A: 255},
	}
	candidates := make([]models.ProductCandidate, n)
	for i := range candidates {
		path := filepath.Join(dir, "product"+string(rune('a'+i))+".png")
		writeTestPNG(t, path, 90+10*i, 120, colors[i%len(colors)])
		candidates[i] = models.ProductCandidate{
			Name:      "Product " + string(rune('A'+i)),
			ImagePath: path,
		}
	}
	return candidates
}

func TestBuildLayout(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.png")
	writeTestPNG(t, basePath, 400, 300, color.White)
	candidates := candidateFixtures(t, dir, 4)

	sess := testSession(t)
	builder := NewBuilder()
	comp, err := builder.Build(basePath, candidates, sess, testParams())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(comp.Placements) != 5 {
		t.Fatalf("Expected 5 placements (base + 4 products), got %d", len(comp.Placements))
	}
	if comp.Placements[0].Name != "base" || comp.Placements[0].Index != 0 {
		t.Errorf("Expected base placement first, got %+v", comp.Placements[0])
	}

	// 4 products in 3 columns: 2 rows, so the canvas is 400+450 wide and
	// max(300, 300) tall, within the 1024 cap.
	if comp.Width != 850 || comp.Height != 300 {
		t.Errorf("Expected 850x300 composite, got %dx%d", comp.Width, comp.Height)
	}

	// Grid cells start right of the base block and never overlap it.
	for _, p := range comp.Placements[1:] {
		if p.Cell.Min.X < 400 {
			t.Errorf("Placement %q overlaps the base block: %v", p.Name, p.Cell)
		}
	}

	data, err := sess.Read(session.CategoryComposites, "composite_layout.png")
	if err != nil {
		t.Fatalf("Read composite artifact: %v", err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode composite: %v", err)
	}
	if format != "png" {
		t.Errorf("Expected png artifact, got %s", format)
	}
	if img.Bounds().Dx() != comp.Width || img.Bounds().Dy() != comp.Height {
		t.Errorf("Artifact size %v does not match reported %dx%d", img.Bounds(), comp.Width, comp.Height)
	}
}

func TestBuildDeterministic(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.png")
	writeTestPNG(t, basePath, 320, 240, color.White)
	candidates := candidateFixtures(t, dir, 3)

	builder := NewBuilder()

	sessA := testSession(t)
	compA, err := builder.Build(basePath, candidates, sessA, testParams())
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	sessB := testSession(t)
	compB, err := builder.Build(basePath, candidates, sessB, testParams())
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}

	dataA, err := os.ReadFile(compA.Path)
	if err != nil {
		t.Fatalf("read first composite: %v", err)
	}
	dataB, err := os.ReadFile(compB.Path)
	if err != nil {
		t.Fatalf("read second composite: %v", err)
	}
	if !bytes.Equal(dataA, dataB) {
		t.Error("Expected identical composites for identical inputs")
	}
}

func TestBuildSkipsUnreadableCandidates(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.png")
	writeTestPNG(t, basePath, 300, 200, color.White)

	candidates := candidateFixtures(t, dir, 2)
	broken := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(broken, []byte("not an image"), 0644); err != nil {
		t.Fatalf("write broken file: %v", err)
	}
	candidates = append(candidates, models.ProductCandidate{Name: "Broken", ImagePath: broken})
	candidates = append(candidates, models.ProductCandidate{Name: "Missing", ImagePath: filepath.Join(dir, "missing.png")})

	builder := NewBuilder()
	comp, err := builder.Build(basePath, candidates, testSession(t), testParams())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(comp.Skipped) != 2 {
		t.Errorf("Expected 2 skipped candidates, got %v", comp.Skipped)
	}
	// Skipped entries carry the candidate image path.
	want := map[string]bool{broken: true, filepath.Join(dir, "missing.png"): true}
	for _, path := range comp.Skipped {
		if !want[path] {
			t.Errorf("Unexpected skipped entry %q", path)
		}
	}
	if len(comp.Placements) != 3 {
		t.Errorf("Expected base + 2 placements, got %d", len(comp.Placements))
	}
}

func TestBuildBaseFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	builder := NewBuilder()
	_, err := builder.Build(filepath.Join(dir, "missing.png"), nil, testSession(t), testParams())
	if !errors.Is(err, models.ErrCompositeFailed) {
		t.Errorf("Expected ErrCompositeFailed, got %v", err)
	}
}

func TestBuildNoCandidates(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.png")
	writeTestPNG(t, basePath, 300, 200, color.White)

	builder := NewBuilder()
	comp, err := builder.Build(basePath, nil, testSession(t), testParams())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(comp.Placements) != 1 {
		t.Errorf("Expected only the base placement, got %d", len(comp.Placements))
	}
	if comp.Width != 300 || comp.Height != 200 {
		t.Errorf("Expected composite to match the base image, got %dx%d", comp.Width, comp.Height)
	}
}

func TestBuildRespectsSizeCaps(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.png")
	writeTestPNG(t, basePath, 2000, 1500, color.White)
	candidates := candidateFixtures(t, dir, 3)

	params := testParams()
	params.MaxBaseDim = 768
	params.MaxDim = 800

	builder := NewBuilder()
	comp, err := builder.Build(basePath, candidates, testSession(t), params)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if comp.Width > 800 || comp.Height > 800 {
		t.Errorf("Composite %dx%d exceeds the 800 cap", comp.Width, comp.Height)
	}
}
