// Package observability provides OpenTelemetry metrics and tracing for the image browser.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameHTTPRequests        = "lookalike_http_requests_total"
	MetricNameHTTPRequestDuration = "lookalike_http_request_duration_seconds"
	MetricNameRequestBodyTooLarge = "lookalike_request_body_too_large_total"
	MetricNameRenderPasses        = "lookalike_render_passes_total"
	MetricNameRenderDuration      = "lookalike_render_duration_seconds"
	MetricNameStoreCalls          = "lookalike_store_calls_total"
	MetricNameStoreCallDuration   = "lookalike_store_call_duration_seconds"
	MetricNameEmbeddingCalls      = "lookalike_embedding_calls_total"
	MetricNameEmbeddingDuration   = "lookalike_embedding_duration_seconds"
	MetricNameCacheLookups        = "lookalike_cache_lookups_total"
	MetricNameUploadsRejected     = "lookalike_uploads_rejected_total"
)

// Attribute keys.
const (
	AttrOperation = "operation"
	AttrMode      = "mode"
	AttrReason    = "reason"
	AttrStatus    = "status"
	AttrCache     = "cache"
	AttrResult    = "result"
	AttrProvider  = "provider"
)

// Status values shared by the call counters.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Cache names.
const (
	CacheNameUploadEmbedding = "upload_embedding"
)

// AllowedStoreOperations for lookalike_store_calls_total.
var AllowedStoreOperations = map[string]bool{
	"list_page":         true,
	"recommend":         true,
	"search_by_vector":  true,
	"ensure_collection": true,
	"upsert":            true,
}

// AllowedRenderModes for lookalike_render_passes_total. A pass with an upload records
// "upload" in addition to the mode of its main section.
var AllowedRenderModes = map[string]bool{
	"initial": true,
	"similar": true,
	"upload":  true,
}

// AllowedUploadRejectReasons for lookalike_uploads_rejected_total.
var AllowedUploadRejectReasons = map[string]bool{
	"missing_file":     true,
	"extension":        true,
	"content_type":     true,
	"too_large":        true,
	"decode":           true,
	"uploads_disabled": true,
}

// AllowedEmbeddingProviders for lookalike_embedding_*.
var AllowedEmbeddingProviders = map[string]bool{
	"clip": true,
	"http": true,
	"mock": true,
}

// AllowedCacheNames for lookalike_cache_lookups_total.
var AllowedCacheNames = map[string]bool{
	CacheNameUploadEmbedding: true,
}

// NormalizeReason returns reason if in allowed, otherwise "other".
func NormalizeReason(reason string, allowed map[string]bool) string {
	if allowed[reason] {
		return reason
	}

	return "other"
}

// NormalizeStatus returns status if it is success or error, otherwise "other".
func NormalizeStatus(status string) string {
	switch status {
	case StatusSuccess, StatusError:
		return status
	default:
		return "other"
	}
}

// NormalizeCacheName returns name if it is a known cache, otherwise "other".
func NormalizeCacheName(name string) string {
	return NormalizeReason(name, AllowedCacheNames)
}

// StatusOf maps an error to StatusSuccess or StatusError.
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}

	return StatusSuccess
}
