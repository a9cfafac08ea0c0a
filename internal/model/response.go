package model

type SerializableError struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// Timings follows the HAR phase breakdown, in milliseconds. Negative values
// mean the phase did not apply.
type Timings struct {
	Blocked int64 `json:"blocked"`
	DNS     int64 `json:"dns"`
	Connect int64 `json:"connect"`
	Send    int64 `json:"send"`
	Wait    int64 `json:"wait"`
	Receive int64 `json:"receive"`
	SSL     int64 `json:"ssl"`
}

// Response is the terminal result of one exchange. A transport failure that
// happened before any status line was read is carried as Status == 0 with a
// populated Error, never as a thrown error from the engine.
type Response struct {
	Status      int                `json:"status"`
	StatusText  string             `json:"statusText,omitempty"`
	Headers     string             `json:"headers,omitempty"`
	Payload     *SafePayload       `json:"payload,omitempty"`
	Timings     *Timings           `json:"timings,omitempty"`
	LoadingTime int64              `json:"loadingTime"`
	Error       *SerializableError `json:"error,omitempty"`
}

// IsError reports whether the response records a transport-level failure
// instead of a server status.
func (r *Response) IsError() bool {
	return r != nil && r.Status == 0 && r.Error != nil
}

// ErrorResponse builds the status-0 failure shape from an error value.
func ErrorResponse(err error) *Response {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &Response{Status: 0, Error: &SerializableError{Message: msg}}
}

// ResponseRedirect is one hop of a redirect chain, chronological order.
type ResponseRedirect struct {
	URL       string    `json:"url"`
	Response  *Response `json:"response"`
	StartTime int64     `json:"startTime"`
	EndTime   int64     `json:"endTime"`
}

type SizeInfo struct {
	Request  int64 `json:"request"`
	Response int64 `json:"response"`
}

// RequestLog is the immutable artifact of one engine send, including every
// redirect hop and the final (or error) response.
type RequestLog struct {
	ID        string             `json:"id,omitempty"`
	Request   *SentRequest       `json:"request"`
	Response  *Response          `json:"response"`
	Redirects []ResponseRedirect `json:"redirects,omitempty"`
	Size      *SizeInfo          `json:"size,omitempty"`
}
