package model

import (
	"database/sql"
	"time"
)

// RequestLog captures the detail of one completed proxied request. Token
// counts are recorded only when the upstream response reported them.
type RequestLog struct {
	ID           string        `db:"id" json:"id"`
	ProviderID   string        `db:"provider_id" json:"provider_id"`
	ModelID      string        `db:"model_id" json:"model_id"`
	Endpoint     string        `db:"endpoint" json:"endpoint"` // "chat" or "completion"
	FinishReason string        `db:"finish_reason" json:"finish_reason"`
	InputTokens  int           `db:"input_tokens" json:"input_tokens"`
	OutputTokens int           `db:"output_tokens" json:"output_tokens"`
	LatencyMS    int64         `db:"latency_ms" json:"latency_ms"`
	TTFTMS       sql.NullInt64 `db:"ttft_ms" json:"ttft_ms,omitempty"`
	StatusCode   int           `db:"status_code" json:"status_code"`
	IsStreamed   bool          `db:"is_streamed" json:"is_streamed"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// DailyStats represents aggregated usage data for a specific day.
type DailyStats struct {
	Date           string  `db:"date" json:"date"`
	TotalRequests  int     `db:"total_requests" json:"total_requests"`
	TotalTokens    int     `db:"total_tokens" json:"total_tokens"`
	AverageLatency float64 `db:"avg_latency" json:"avg_latency"`
}
