package handlers

import (
	"github.com/formbricks/lookalike/internal/view"
)

// PageResponse is the JSON form of a rendered page.
type PageResponse struct {
	Title         string           `json:"title"`
	UploadEnabled bool             `json:"upload_enabled"`
	Upload        *SectionResponse `json:"upload,omitempty"`
	Main          *SectionResponse `json:"main"`
}

// SectionResponse is one result section.
type SectionResponse struct {
	Mode    string           `json:"mode"`
	Header  *HeaderResponse  `json:"header,omitempty"`
	Preview *PreviewResponse `json:"preview,omitempty"`
	Rows    [][]CellResponse `json:"rows"`
}

// HeaderResponse credits the selected record.
type HeaderResponse struct {
	Text     string         `json:"text"`
	RecordID string         `json:"record_id"`
	Image    *ImageResponse `json:"image,omitempty"`
}

// PreviewResponse is the pending upload.
type PreviewResponse struct {
	Filename string         `json:"filename"`
	Image    *ImageResponse `json:"image,omitempty"`
}

// CellResponse is one grid cell.
type CellResponse struct {
	ID       string         `json:"id"`
	Row      int            `json:"row"`
	Column   int            `json:"column"`
	Score    float32        `json:"score,omitempty"`
	Filename string         `json:"filename,omitempty"`
	Action   string         `json:"action"`
	Image    *ImageResponse `json:"image,omitempty"`
}

// ImageResponse carries image bytes; Data is base64 encoded by encoding/json.
type ImageResponse struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

func newPageResponse(page *view.Page, withImages bool) PageResponse {
	return PageResponse{
		Title:         page.Title,
		UploadEnabled: page.UploadEnabled,
		Upload:        newSectionResponse(page.Upload, withImages),
		Main:          newSectionResponse(page.Main, withImages),
	}
}

func newSectionResponse(section *view.Section, withImages bool) *SectionResponse {
	if section == nil {
		return nil
	}

	out := &SectionResponse{
		Mode: string(section.Mode),
		Rows: make([][]CellResponse, 0, len(section.Rows)),
	}

	if section.Header != nil {
		out.Header = &HeaderResponse{
			Text:     section.Header.Text,
			RecordID: section.Header.Record.ID,
			Image:    newImageResponse(section.Header.Image, withImages),
		}
	}

	if section.Preview != nil {
		out.Preview = &PreviewResponse{
			Filename: section.Preview.Filename,
			Image:    newImageResponse(section.Preview.Image, withImages),
		}
	}

	for _, row := range section.Rows {
		cells := make([]CellResponse, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, CellResponse{
				ID:       cell.Record.ID,
				Row:      cell.Row,
				Column:   cell.Column,
				Score:    cell.Record.Score,
				Filename: cell.Record.Filename(),
				Action:   cell.ActionLabel,
				Image:    newImageResponse(cell.Image, withImages),
			})
		}

		out.Rows = append(out.Rows, cells)
	}

	return out
}

func newImageResponse(img view.Image, withImages bool) *ImageResponse {
	if !withImages {
		return nil
	}

	return &ImageResponse{ContentType: img.ContentType, Data: img.Data}
}
