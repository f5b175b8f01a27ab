package model

// ListResponse is the standard envelope for list endpoints.
type ListResponse struct {
	Resource interface{}   `json:"resource"`
	Meta     *ResponseMeta `json:"meta,omitempty"`
}

// ResponseMeta carries counts for list responses.
type ResponseMeta struct {
	Count int `json:"count"`
}

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned by the API.
// RequestID echoes the X-Request-ID of the failed request so admins can quote
// it when reporting a problem.
type ErrorDetail struct {
	Code      int                    `json:"code"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"request_id,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
}
