// Package qrexport renders table QR codes as PNG, SVG, multi-page PDF or a ZIP of images.
package qrexport

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
	"github.com/yeremiapane/restaurant-platform/utils"
)

type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
	FormatZIP Format = "zip"
)

const (
	MinSize = 128
	MaxSize = 2048
)

// ParseFormat accepts only the closed set of export formats.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatPNG, FormatSVG, FormatPDF, FormatZIP:
		return f, nil
	}
	return "", utils.Validation(utils.FieldError{
		Field:   "format",
		Message: "must be one of png, svg, pdf, zip",
	})
}

func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPDF:
		return "application/pdf"
	case FormatZIP:
		return "application/zip"
	}
	return "application/octet-stream"
}

// Item is one QR code to render: Content is what the code encodes.
type Item struct {
	Label    string
	Subtitle string
	Content  string
	FileStem string
}

type Document struct {
	ContentType string
	Filename    string
	Body        []byte
}

type Renderer struct {
	Size int
}

func NewRenderer(size int) *Renderer {
	if size < MinSize {
		size = MinSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return &Renderer{Size: size}
}

// Render produces one document for items. A single item in png/svg is
// returned as-is; several png/svg items are packed into a ZIP.
func (r *Renderer) Render(format Format, items []Item, name string) (*Document, error) {
	if len(items) == 0 {
		return nil, utils.NotFound("no tables to export")
	}
	name = safeStem(name)

	switch format {
	case FormatPNG, FormatSVG:
		if len(items) == 1 {
			body, err := r.image(format, items[0].Content)
			if err != nil {
				return nil, err
			}
			return &Document{ContentType: format.ContentType(), Filename: safeStem(items[0].FileStem) + "." + string(format), Body: body}, nil
		}
		body, err := r.ZIP(items, format)
		if err != nil {
			return nil, err
		}
		return &Document{ContentType: FormatZIP.ContentType(), Filename: name + "-" + string(format) + ".zip", Body: body}, nil
	case FormatPDF:
		body, err := r.PDF(items)
		if err != nil {
			return nil, err
		}
		return &Document{ContentType: format.ContentType(), Filename: name + ".pdf", Body: body}, nil
	case FormatZIP:
		body, err := r.ZIP(items, FormatPNG)
		if err != nil {
			return nil, err
		}
		return &Document{ContentType: format.ContentType(), Filename: name + ".zip", Body: body}, nil
	}

	_, err := ParseFormat(string(format))
	return nil, err
}

func (r *Renderer) image(format Format, content string) ([]byte, error) {
	if format == FormatSVG {
		return r.SVG(content)
	}
	return r.PNG(content)
}

func (r *Renderer) PNG(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, r.Size)
}

func (r *Renderer) SVG(content string) ([]byte, error) {
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	bitmap := code.Bitmap()
	modules := len(bitmap)
	if modules == 0 {
		return nil, fmt.Errorf("empty qr bitmap")
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`,
		r.Size, r.Size, modules, modules)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#ffffff"/>`, modules, modules)
	b.WriteString(`<path fill="#000000" d="`)
	for y, row := range bitmap {
		for x, dark := range row {
			if dark {
				fmt.Fprintf(&b, "M%d %dh1v1h-1z", x, y)
			}
		}
	}
	b.WriteString(`"/></svg>`)
	return []byte(b.String()), nil
}

// PDF lays out one table per A4 page with its label above the code.
func (r *Renderer) PDF(items []Item) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Table QR codes", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	const codeW = 120.0

	for i, item := range items {
		png, err := r.PNG(item.Content)
		if err != nil {
			return nil, err
		}

		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 28)
		pdf.CellFormat(0, 20, tr(item.Label), "", 1, "C", false, 0, "")
		if item.Subtitle != "" {
			pdf.SetFont("Helvetica", "", 14)
			pdf.CellFormat(0, 10, tr(item.Subtitle), "", 1, "C", false, 0, "")
		}

		imageName := fmt.Sprintf("qr-%d", i)
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(png))
		pdf.ImageOptions(imageName, (pageW-codeW)/2, 60, codeW, codeW, false, opts, 0, "")

		pdf.SetY(60 + codeW + 10)
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 8, tr("Scan to open the menu"), "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) ZIP(items []Item, inner Format) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	written := map[string]bool{}
	for _, item := range items {
		body, err := r.image(inner, item.Content)
		if err != nil {
			return nil, err
		}

		name := uniqueName(written, safeStem(item.FileStem), "."+string(inner))
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// uniqueName returns stem+ext, or stem-N+ext for the smallest N not taken yet,
// and marks it taken.
func uniqueName(taken map[string]bool, stem, ext string) string {
	name := stem + ext
	for n := 1; taken[name]; n++ {
		name = fmt.Sprintf("%s-%d%s", stem, n, ext)
	}
	taken[name] = true
	return name
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func safeStem(s string) string {
	s = strings.Trim(unsafeChars.ReplaceAllString(s, "-"), "-.")
	if s == "" {
		return "qr"
	}
	return s
}
