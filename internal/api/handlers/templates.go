package handlers

import (
	"embed"
	"encoding/base64"
	"html/template"
	"net/url"

	"github.com/formbricks/lookalike/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(
	template.New("lookalike").Funcs(template.FuncMap{
		"dataURI":    dataURI,
		"pathEscape": url.PathEscape,
	}).ParseFS(templateFS, "templates/*.html"),
)

// dataURI inlines image bytes as a data: URL. The content type comes from sniffing the
// bytes, so it is always an image type or application/octet-stream.
func dataURI(img view.Image) template.URL {
	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	//nolint:gosec // the payload is base64 and the media type is sniffed, not user supplied
	return template.URL("data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data))
}

type errorPage struct {
	Title         string
	Status        int
	StatusText    string
	Message       string
	UploadPending bool
}
