package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/formbricks/lookalike/internal/api/response"
	"github.com/formbricks/lookalike/internal/api/validation"
	"github.com/formbricks/lookalike/internal/apperrors"
	"github.com/formbricks/lookalike/internal/embeddings"
	"github.com/formbricks/lookalike/internal/observability"
	"github.com/formbricks/lookalike/internal/session"
	"github.com/formbricks/lookalike/internal/view"
)

// UploadField is the multipart field carrying the uploaded image.
const UploadField = "file"

// maxMultipartMemory is how much of a multipart body is kept in memory before spilling to disk.
const maxMultipartMemory = 32 << 20

// Upload rejection reasons, as recorded by APIMetrics.RecordUploadRejected.
const (
	rejectMissingFile     = "missing_file"
	rejectExtension       = "extension"
	rejectContentType     = "content_type"
	rejectTooLarge        = "too_large"
	rejectDecode          = "decode"
	rejectUploadsDisabled = "uploads_disabled"
)

// Renderer builds the page for one render pass.
type Renderer interface {
	Render(ctx context.Context, snap session.Snapshot) (*view.Page, error)
}

// Ensure view.Controller implements Renderer interface.
var _ Renderer = (*view.Controller)(nil)

// BrowserHandler serves the HTML browser and its form posts. Every mutating
// request redirects back to the page so a reload never resubmits.
type BrowserHandler struct {
	renderer      Renderer
	state         *session.State
	title         string
	uploadEnabled bool
	metrics       observability.APIMetrics
	logger        *slog.Logger
}

// BrowserHandlerParams configures BrowserHandler. Metrics and Logger may be nil.
type BrowserHandlerParams struct {
	Renderer      Renderer
	State         *session.State
	Title         string
	UploadEnabled bool
	Metrics       observability.APIMetrics
	Logger        *slog.Logger
}

// NewBrowserHandler creates a new browser handler.
func NewBrowserHandler(p BrowserHandlerParams) *BrowserHandler {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &BrowserHandler{
		renderer:      p.Renderer,
		state:         p.State,
		title:         p.Title,
		uploadEnabled: p.UploadEnabled,
		metrics:       p.Metrics,
		logger:        logger,
	}
}

// Page handles GET /.
func (h *BrowserHandler) Page(w http.ResponseWriter, r *http.Request) {
	page, err := h.render(r.Context())
	if err != nil {
		h.respondErrorPage(w, r, err)

		return
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "page", page); err != nil {
		h.respondErrorPage(w, r, err)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if _, err := buf.WriteTo(w); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write page", "error", err)
	}
}

// PageJSON handles GET /api/v1/page.
func (h *BrowserHandler) PageJSON(w http.ResponseWriter, r *http.Request) {
	var query validation.PageQuery
	if err := validation.ValidateAndDecodeQueryParams(r, &query); err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			validation.RespondValidationError(w, err)

			return
		}

		response.RespondBadRequest(w, err.Error())

		return
	}

	page, err := h.render(r.Context())
	if err != nil {
		h.logFailure(r, err)
		response.RespondAppError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, newPageResponse(page, query.WantImages()))
}

// Similar handles POST /records/{id}/similar: the "find similar" control of a displayed record.
func (h *BrowserHandler) Similar(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		h.respondErrorPage(w, r, apperrors.NewValidationError("id", "malformed record id"))

		return
	}

	record, err := h.state.SelectShown(id)
	if err != nil {
		h.respondErrorPage(w, r, err)

		return
	}

	h.logger.DebugContext(r.Context(), "record selected", "record_id", record.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Upload handles POST /upload with the image in the multipart field "file".
// The file must have a jpg, jpeg or png extension and sniff as JPEG or PNG.
func (h *BrowserHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.uploadEnabled {
		h.rejectUpload(w, r, rejectUploadsDisabled, apperrors.NewNotFoundError("upload", "uploads are disabled"))

		return
	}

	upload, reason, err := readUpload(r)
	if err != nil {
		h.rejectUpload(w, r, reason, err)

		return
	}

	h.state.SetUpload(upload)
	h.logger.InfoContext(r.Context(), "upload accepted",
		"filename", upload.Filename, "content_type", upload.ContentType, "bytes", len(upload.Data))

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ClearUpload handles POST /upload/clear.
func (h *BrowserHandler) ClearUpload(w http.ResponseWriter, r *http.Request) {
	h.state.ClearUpload()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// render runs one pass over the current state and remembers what it displayed,
// so the record ids posted back by the grid's controls can be resolved.
func (h *BrowserHandler) render(ctx context.Context) (*view.Page, error) {
	page, err := h.renderer.Render(ctx, h.state.Snapshot())
	if err != nil {
		return nil, err
	}

	h.state.Remember(page.Shown())

	return page, nil
}

// readUpload extracts and validates the uploaded file. On failure it returns the
// rejection reason alongside the error.
func readUpload(r *http.Request) (session.Upload, string, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return session.Upload{}, rejectTooLarge, err
		}

		return session.Upload{}, rejectMissingFile, apperrors.NewValidationError(UploadField, "expected a multipart form: "+err.Error())
	}

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		return session.Upload{}, rejectMissingFile, apperrors.NewValidationError(UploadField, "no file uploaded")
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return session.Upload{}, rejectMissingFile, err
	}

	upload := session.Upload{
		Filename:    header.Filename,
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}

	candidate := validation.Upload{
		Filename:    upload.Filename,
		ContentType: upload.ContentType,
		Size:        int64(len(data)),
	}

	if err := validation.ValidateStruct(candidate); err != nil {
		return session.Upload{}, rejectReason(err), err
	}

	// A pending upload is decoded on every render, so it must decode now.
	if _, err := embeddings.DecodeImage(data); err != nil {
		return session.Upload{}, rejectDecode, apperrors.NewValidationError(UploadField, err.Error())
	}

	return upload, "", nil
}

func rejectReason(err error) string {
	var verr *validation.ValidationError
	if !errors.As(err, &verr) {
		return rejectMissingFile
	}

	switch fields := verr.FailedFields(); {
	case len(fields) == 0:
		return rejectMissingFile
	case fields[0] == "Filename":
		return rejectExtension
	case fields[0] == "ContentType":
		return rejectContentType
	default:
		return rejectMissingFile
	}
}

func (h *BrowserHandler) rejectUpload(w http.ResponseWriter, r *http.Request, reason string, err error) {
	if h.metrics != nil {
		h.metrics.RecordUploadRejected(r.Context(), reason)
	}

	h.logger.WarnContext(r.Context(), "upload rejected", "reason", reason, "error", err)

	var verr *validation.ValidationError

	switch {
	case reason == rejectTooLarge:
		response.RespondRequestEntityTooLarge(w, err.Error())
	case wantsJSON(r) && errors.As(err, &verr):
		validation.RespondValidationError(w, err)
	case wantsJSON(r):
		response.RespondAppError(w, err)
	default:
		h.writeErrorPage(w, r, response.StatusFor(err), err)
	}
}

// respondErrorPage renders err as an HTML page with the status from response.StatusFor.
func (h *BrowserHandler) respondErrorPage(w http.ResponseWriter, r *http.Request, err error) {
	h.logFailure(r, err)
	h.writeErrorPage(w, r, response.StatusFor(err), err)
}

func (h *BrowserHandler) writeErrorPage(w http.ResponseWriter, r *http.Request, status int, err error) {
	// Without the clear form a pending upload that breaks rendering would fail every page load.
	data := errorPage{
		Title:         h.title,
		Status:        status,
		StatusText:    http.StatusText(status),
		Message:       err.Error(),
		UploadPending: h.uploadEnabled && h.state.Snapshot().HasUpload(),
	}

	var buf bytes.Buffer
	if tmplErr := pageTemplates.ExecuteTemplate(&buf, "error", data); tmplErr != nil {
		h.logger.ErrorContext(r.Context(), "failed to render error page", "error", tmplErr)
		http.Error(w, err.Error(), status)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *BrowserHandler) logFailure(r *http.Request, err error) {
	if response.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "render pass failed", "error", err)

		return
	}

	h.logger.WarnContext(r.Context(), "request failed", "error", err)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
