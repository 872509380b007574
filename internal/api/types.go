package api

import "github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/telemetry"

// ExecuteResponse is returned by POST /execute_skill on success.
type ExecuteResponse struct {
	Output string `json:"output"`
}

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Skills        int    `json:"skills"`
}

// EventsResponse is returned by GET /events.
type EventsResponse struct {
	Events []telemetry.Record `json:"events"`
}
