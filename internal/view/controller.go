package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/formbricks/lookalike/internal/models"
	"github.com/formbricks/lookalike/internal/observability"
	"github.com/formbricks/lookalike/internal/session"
)

// ErrNoSelection is returned when the similar section is requested without a selected record.
var ErrNoSelection = errors.New("view: no record selected")

// Finder runs the lookups a render pass needs.
type Finder interface {
	InitialPage(ctx context.Context) ([]models.Record, error)
	Similar(ctx context.Context, seedID string) ([]models.Record, error)
	SearchByImage(ctx context.Context, data []byte) ([]models.Record, error)
}

// Controller builds pages from a session snapshot. It holds no per-user state.
type Controller struct {
	finder        Finder
	title         string
	uploadEnabled bool
	metrics       observability.RenderMetrics
	logger        *slog.Logger
}

// ControllerParams configures Controller. Metrics and Logger may be nil.
type ControllerParams struct {
	Finder        Finder
	Title         string
	UploadEnabled bool
	Metrics       observability.RenderMetrics
	Logger        *slog.Logger
}

// NewController creates a Controller.
func NewController(p ControllerParams) *Controller {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		finder:        p.Finder,
		title:         p.Title,
		uploadEnabled: p.UploadEnabled,
		metrics:       p.Metrics,
		logger:        logger,
	}
}

// Render runs one pass. A pending upload (when uploads are enabled) adds an upload section;
// the main section is recommendations for the selection if there is one, else the initial page.
// Any failure aborts the whole pass.
func (c *Controller) Render(ctx context.Context, snap session.Snapshot) (*Page, error) {
	ctx, span := observability.Tracer().Start(ctx, "view.Render")
	defer span.End()

	page := &Page{Title: c.title, UploadEnabled: c.uploadEnabled}

	if c.uploadEnabled && snap.HasUpload() {
		start := time.Now()
		section, err := c.UploadSection(ctx, *snap.Upload)
		c.record(ctx, ModeUpload, err, start)

		if err != nil {
			return nil, err
		}

		page.Upload = section
	}

	var (
		mode    = ModeInitial
		section *Section
		err     error
		start   = time.Now()
	)

	if snap.HasSelection() {
		mode = ModeSimilar
		section, err = c.SimilarSection(ctx, snap)
	} else {
		section, err = c.InitialSection(ctx)
	}

	c.record(ctx, mode, err, start)

	if err != nil {
		return nil, err
	}

	page.Main = section

	c.logger.DebugContext(ctx, "page rendered",
		"mode", mode, "records", len(section.Records()), "upload", page.Upload != nil)

	return page, nil
}

// InitialSection lists the first records of the collection, without a header.
func (c *Controller) InitialSection(ctx context.Context) (*Section, error) {
	records, err := c.finder.InitialPage(ctx)
	if err != nil {
		return nil, err
	}

	return c.section(ModeInitial, records)
}

// SimilarSection shows recommendations for the selected record under a header with its image.
func (c *Controller) SimilarSection(ctx context.Context, snap session.Snapshot) (*Section, error) {
	if !snap.HasSelection() {
		return nil, ErrNoSelection
	}

	selected := *snap.Selected

	data, err := selected.Image()
	if err != nil {
		return nil, err
	}

	records, err := c.finder.Similar(ctx, selected.ID)
	if err != nil {
		return nil, err
	}

	section, err := c.section(ModeSimilar, records)
	if err != nil {
		return nil, err
	}

	section.Header = &Header{Text: HeaderText, Record: selected, Image: newImage(data)}

	return section, nil
}

// UploadSection shows the uploaded image followed by the records nearest to it.
func (c *Controller) UploadSection(ctx context.Context, upload session.Upload) (*Section, error) {
	records, err := c.finder.SearchByImage(ctx, upload.Data)
	if err != nil {
		return nil, err
	}

	section, err := c.section(ModeUpload, records)
	if err != nil {
		return nil, err
	}

	preview := newImage(upload.Data)
	if upload.ContentType != "" {
		preview.ContentType = upload.ContentType
	}

	section.Preview = &UploadPreview{Filename: upload.Filename, Image: preview}

	return section, nil
}

func (c *Controller) section(mode Mode, records []models.Record) (*Section, error) {
	rows, err := Layout(records)
	if err != nil {
		return nil, fmt.Errorf("%s section: %w", mode, err)
	}

	return &Section{Mode: mode, Rows: rows}, nil
}

func (c *Controller) record(ctx context.Context, mode Mode, err error, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordRender(ctx, string(mode), observability.StatusOf(err), time.Since(start))
	}
}
