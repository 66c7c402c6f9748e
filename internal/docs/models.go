package docs

import "time"

// APIResponse is the envelope shared by every JSON endpoint
type APIResponse struct {
	Success   bool         `json:"success" example:"true"`
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id" example:"6f1c2a8e-3b0d-4c55-9a57-2f4d1b8e9c10"`
	Timestamp int64        `json:"timestamp" example:"1760486400"`
	Version   string       `json:"version" example:"v1"`
}

// ErrorDetail describes a failed request
type ErrorDetail struct {
	Type    string                 `json:"type" example:"VALIDATION_ERROR"`
	Message string                 `json:"message" example:"Texte requis"`
	Code    string                 `json:"code,omitempty" example:"EMAIL_TAKEN"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse is the envelope returned on failure
type ErrorResponse struct {
	Success   bool        `json:"success" example:"false"`
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id"`
	Timestamp int64       `json:"timestamp"`
	Version   string      `json:"version" example:"v1"`
}

// RootResponse is returned by GET /
type RootResponse struct {
	Message string `json:"message" example:"Hack Speech API is running"`
	Status  string `json:"status" example:"ok"`
}

// HealthCheckResponse represents the health check response
type HealthCheckResponse struct {
	Status      string                 `json:"status" example:"healthy"`
	Timestamp   time.Time              `json:"timestamp" example:"2026-10-15T10:30:00Z"`
	Uptime      string                 `json:"uptime" example:"2h13m5s"`
	Version     string                 `json:"version" example:"1.0.0"`
	Environment string                 `json:"environment" example:"production"`
	Components  map[string]interface{} `json:"components"`
}

// GoogleAuthURLResponse carries the consent screen URL and its state
type GoogleAuthURLResponse struct {
	URL   string `json:"url" example:"https://accounts.google.com/o/oauth2/auth?client_id=..."`
	State string `json:"state" example:"0d6c1f4e-7a77-4f3e-bb1f-2c4b0f1f7d1a"`
}
