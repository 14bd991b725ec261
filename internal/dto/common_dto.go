package dto

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	// Code is set on errors the client can act on, e.g. "upgrade_required".
	Code string `json:"code,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}

type MessageResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}
