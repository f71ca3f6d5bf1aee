package llm

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/calder-ai/uniproxy/internal/httpclient"
	"github.com/calder-ai/uniproxy/pkg/api"
)

// upstreamErrorBody mirrors the standard OpenAI error envelope.
type upstreamErrorBody struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

// NormalizeUpstream classifies a transport-level failure from an upstream
// call into the proxy taxonomy. First match wins: rate limiting, then
// provider-side auth, then structured pass-through; anything that is not an
// UpstreamError is returned unchanged for the caller to classify.
func NormalizeUpstream(err error) error {
	var upstreamErr *httpclient.UpstreamError
	if !errors.As(err, &upstreamErr) {
		return err
	}

	switch upstreamErr.StatusCode {
	case http.StatusTooManyRequests:
		return api.UpstreamRateLimited(api.WithLog(err))
	case http.StatusUnauthorized, http.StatusForbidden:
		return api.UpstreamAuthFailed(api.WithLog(err))
	}

	var body upstreamErrorBody
	if jsonErr := json.Unmarshal(upstreamErr.Body, &body); jsonErr != nil || body.Error.Message == "" {
		return api.UpstreamError(upstreamErr.StatusCode, "Upstream provider error", api.WithLog(err))
	}

	return api.UpstreamError(
		upstreamErr.StatusCode,
		body.Error.Message,
		api.WithExtension("upstream_code", body.Error.Code),
		api.WithExtension("upstream_type", body.Error.Type),
		api.WithLog(err),
	)
}
