package chart

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Format is an image output format.
type Format string

// Image formats.
const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
	FormatJPG Format = "jpg"
)

// ParseFormat converts a format name such as "png" or ".svg" into a Format.
func ParseFormat(s string) (Format, error) {
	switch f := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."); f {
	case "png":
		return FormatPNG, nil
	case "svg":
		return FormatSVG, nil
	case "pdf":
		return FormatPDF, nil
	case "jpg", "jpeg":
		return FormatJPG, nil
	default:
		return "", &UnsupportedFormatError{Format: s, Supported: allFormats}
	}
}

// FormatFromPath derives the image format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("cannot infer image format from %q: missing file extension", path)
	}
	return ParseFormat(ext)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPDF:
		return "application/pdf"
	case FormatJPG:
		return "image/jpeg"
	default:
		return "image/png"
	}
}

var allFormats = []Format{FormatPNG, FormatSVG, FormatPDF, FormatJPG}

// Figure is a handle to a rendered chart. Each render call returns its own
// Figure; nothing is shared between figures.
type Figure interface {
	// ID uniquely identifies this render.
	ID() string
	Title() string
	Kind() Kind
	// Formats lists the image formats Render accepts.
	Formats() []Format
	// Render encodes the figure to w.
	Render(w io.Writer, format Format) error
	// Save writes the figure to path, choosing the format from the extension.
	Save(path string) error
}

// Options controls figure layout.
type Options struct {
	// Width and Height are in inches.
	Width  float64
	Height float64
	// Title overrides the default title when set.
	Title string
}

// DefaultOptions returns an 8x5 inch figure.
func DefaultOptions() Options {
	return Options{Width: 8, Height: 5}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	return o
}

func (o Options) title(def string) string {
	if o.Title != "" {
		return o.Title
	}
	return def
}

// plotFigure wraps a gonum plot.
type plotFigure struct {
	id     string
	kind   Kind
	plot   *plot.Plot
	width  vg.Length
	height vg.Length
}

func newPlotFigure(kind Kind, p *plot.Plot, opts Options) *plotFigure {
	return &plotFigure{
		id:     uuid.NewString(),
		kind:   kind,
		plot:   p,
		width:  vg.Length(opts.Width) * vg.Inch,
		height: vg.Length(opts.Height) * vg.Inch,
	}
}

func (f *plotFigure) ID() string        { return f.id }
func (f *plotFigure) Title() string     { return f.plot.Title.Text }
func (f *plotFigure) Kind() Kind        { return f.kind }
func (f *plotFigure) Formats() []Format { return allFormats }

func (f *plotFigure) Render(w io.Writer, format Format) error {
	if !supports(f, format) {
		return &UnsupportedFormatError{Format: string(format), Supported: f.Formats()}
	}
	wt, err := f.plot.WriterTo(f.width, f.height, string(format))
	if err != nil {
		return fmt.Errorf("failed to create %s writer: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}

func (f *plotFigure) Save(path string) error {
	return saveFigure(f, path)
}

func supports(f Figure, format Format) bool {
	for _, s := range f.Formats() {
		if s == format {
			return true
		}
	}
	return false
}

func saveFigure(f Figure, path string) (err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if !supports(f, format) {
		return &UnsupportedFormatError{Format: string(format), Supported: f.Formats()}
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path) //nolint:gosec // output path is chosen by the caller
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	return f.Render(file, format)
}
