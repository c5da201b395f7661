// Package composite arranges the base room photo and candidate product
// images into a single grid image used as multi-image input for
// synthesis. Layout is deterministic for a given candidate order.
package composite

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/revibe-studio/revibe/internal/models"
	"github.com/revibe-studio/revibe/internal/session"
)

// Params are the mode-dependent rendering knobs of the composite stage.
type Params struct {
	// ThumbSize is the square cell size for product thumbnails.
	ThumbSize int `yaml:"thumb_size"`
	// MaxBaseDim caps the longest side of the base image block.
	MaxBaseDim int `yaml:"max_base_dim"`
	// MaxDim caps the longest side of the finished composite.
	MaxDim int `yaml:"max_dim"`
	// Columns is the product grid width.
	Columns int `yaml:"columns"`
}

// Placement records where one image landed in the grid, for debugging
// and layout tests. Index 0 is always the base image block.
type Placement struct {
	Index int             `json:"index"`
	Name  string          `json:"name"`
	Cell  image.Rectangle `json:"cell"`
}

// Composite is the rendered grid artifact. Skipped holds the image
// paths of candidates that could not be rendered; the path is unique
// per downloaded candidate, unlike the product name.
type Composite struct {
	Path       string
	Width      int
	Height     int
	Placements []Placement
	Skipped    []string
}

// Builder renders composite grids into a session.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build renders the base image plus candidates into one grid PNG stored
// in the session composites directory. The base image always occupies
// the first (leftmost) block; candidates fill a fixed-column grid in
// their given order. An unreadable candidate image is skipped, not
// fatal; a missing or undecodable base image is.
func (b *Builder) Build(basePath string, candidates []models.ProductCandidate, sess *session.Session, params Params) (*Composite, error) {
	baseImg, err := decodeImage(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: base image: %v", models.ErrCompositeFailed, err)
	}
	baseImg = scaleToFit(baseImg, params.MaxBaseDim)
	baseW := baseImg.Bounds().Dx()
	baseH := baseImg.Bounds().Dy()

	result := &Composite{}

	var thumbs []image.Image
	var names []string
	for _, candidate := range candidates {
		img, err := decodeImage(candidate.ImagePath)
		if err != nil {
			slog.Warn("Skipping unreadable candidate image", "name", candidate.Name, "path", candidate.ImagePath, "error", err)
			result.Skipped = append(result.Skipped, candidate.ImagePath)
			continue
		}
		thumbs = append(thumbs, img)
		names = append(names, candidate.Name)
	}

	cols := params.Columns
	rows := (len(thumbs) + cols - 1) / cols
	gridW := 0
	gridH := 0
	if len(thumbs) > 0 {
		gridW = cols * params.ThumbSize
		gridH = rows * params.ThumbSize
	}

	width := baseW + gridW
	height := baseH
	if gridH > height {
		height = gridH
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	// Base block, vertically centered.
	baseY := (height - baseH) / 2
	baseRect := image.Rect(0, baseY, baseW, baseY+baseH)
	draw.Draw(canvas, baseRect, baseImg, baseImg.Bounds().Min, draw.Src)
	result.Placements = append(result.Placements, Placement{Index: 0, Name: "base", Cell: baseRect})

	for i, thumb := range thumbs {
		row := i / cols
		col := i % cols
		cell := image.Rect(
			baseW+col*params.ThumbSize,
			row*params.ThumbSize,
			baseW+(col+1)*params.ThumbSize,
			(row+1)*params.ThumbSize,
		)
		pasteLetterboxed(canvas, cell, thumb)
		result.Placements = append(result.Placements, Placement{Index: i + 1, Name: names[i], Cell: cell})
	}

	final := scaleToFit(canvas, params.MaxDim)
	result.Width = final.Bounds().Dx()
	result.Height = final.Bounds().Dy()

	var buf bytes.Buffer
	if err := png.Encode(&buf, final); err != nil {
		return nil, fmt.Errorf("%w: failed to encode composite: %v", models.ErrCompositeFailed, err)
	}
	path, err := sess.Store(session.CategoryComposites, "composite_layout.png", buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrCompositeFailed, err)
	}
	result.Path = path

	slog.Info("Composite layout created", "path", path,
		"size", fmt.Sprintf("%dx%d", result.Width, result.Height),
		"products", len(thumbs), "skipped", len(result.Skipped))
	return result, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// scaleToFit shrinks an image so its longest side is at most maxDim,
// preserving aspect ratio. Images already within bounds pass through.
func scaleToFit(img image.Image, maxDim int) image.Image {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	nw, nh := fitWithin(w, h, maxDim)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func fitWithin(w, h, maxDim int) (int, int) {
	if w >= h {
		return maxDim, maxInt(1, h*maxDim/w)
	}
	return maxInt(1, w*maxDim/h), maxDim
}

// pasteLetterboxed scales an image to fit a cell preserving aspect
// ratio and centers it, leaving white bars where it does not fill.
func pasteLetterboxed(canvas *image.RGBA, cell image.Rectangle, img image.Image) {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	cellW := cell.Dx()
	cellH := cell.Dy()

	var nw, nh int
	if w*cellH >= h*cellW {
		nw = cellW
		nh = maxInt(1, h*cellW/w)
	} else {
		nh = cellH
		nw = maxInt(1, w*cellH/h)
	}

	x := cell.Min.X + (cellW-nw)/2
	y := cell.Min.Y + (cellH-nh)/2
	target := image.Rect(x, y, x+nw, y+nh)
	xdraw.CatmullRom.Scale(canvas, target, img, img.Bounds(), draw.Over, nil)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
