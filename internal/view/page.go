// Package view decides what one render pass of the browser shows and lays it out as a
// three-column grid. It has no HTTP or HTML knowledge; handlers render the Page it returns.
package view

import (
	"github.com/gabriel-vasile/mimetype"

	"github.com/formbricks/lookalike/internal/models"
)

// Fixed UI strings and layout.
const (
	HeaderText  = "Images similar to:"
	ActionLabel = "Find sml images"
	Columns     = 3
)

// Mode says which lookup produced a section.
type Mode string

// Section modes.
const (
	ModeInitial Mode = "initial"
	ModeSimilar Mode = "similar"
	ModeUpload  Mode = "upload"
)

// Image is decoded image bytes ready to display.
type Image struct {
	Data        []byte
	ContentType string
}

// Cell is one record in the grid with its "find similar" control.
type Cell struct {
	Record      models.Record
	Image       Image
	Row         int
	Column      int
	ActionLabel string
}

// Row is one grid row of at most Columns cells.
type Row struct {
	Cells []Cell
}

// Header credits the selected record above its recommendations.
type Header struct {
	Text   string
	Record models.Record
	Image  Image
}

// UploadPreview is the pending upload shown above its search results.
type UploadPreview struct {
	Filename string
	Image    Image
}

// Section is one result set: an optional header or upload preview followed by the grid.
type Section struct {
	Mode    Mode
	Header  *Header
	Preview *UploadPreview
	Rows    []Row
}

// Records returns the section's records in display order.
func (s *Section) Records() []models.Record {
	if s == nil {
		return nil
	}

	var out []models.Record

	for _, row := range s.Rows {
		for _, cell := range row.Cells {
			out = append(out, cell.Record)
		}
	}

	return out
}

// Page is everything one render pass displays. Upload is nil unless an upload is pending.
type Page struct {
	Title         string
	UploadEnabled bool
	Upload        *Section
	Main          *Section
}

// Shown returns every record with a "find similar" control on the page, upload results first.
func (p *Page) Shown() []models.Record {
	return append(p.Upload.Records(), p.Main.Records()...)
}

func newImage(data []byte) Image {
	return Image{Data: data, ContentType: mimetype.Detect(data).String()}
}
