package dto

import "time"

// ErrorResponse is the JSON body returned for every failed API call.
type ErrorResponse struct {
	Message      string    `json:"message" example:"invalid request"`        // Human readable summary
	ErrorDetails string    `json:"error_details,omitempty" example:"boom"`   // Underlying error text, if any
	Timestamp    time.Time `json:"timestamp" example:"2024-03-05T10:00:00Z"` // When the error was produced
}

// Error implements the error interface so the response can travel through gin's error list.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}

// NewErrorResponse builds an ErrorResponse stamped with the current UTC time.
//
// Parameters:
//   - message: summary shown to the client.
//   - err: optional underlying error; its text becomes ErrorDetails.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}
