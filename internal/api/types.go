package api

import "smsink/internal/store"

// WebhookResponse is returned for accepted deliveries. Created and duplicate
// are deliberately indistinguishable here.
type WebhookResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ListResponse is returned by GET /messages.
type ListResponse struct {
	Data   []store.Message `json:"data"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// HealthResponse is returned by the health probes.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
