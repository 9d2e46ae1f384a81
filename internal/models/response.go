package models

// Response is the success envelope returned by every endpoint.
type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
