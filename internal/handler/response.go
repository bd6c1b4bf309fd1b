package handler

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

// OK is the body of endpoints that only acknowledge.
type OK struct {
	OK bool `json:"ok"`
}
