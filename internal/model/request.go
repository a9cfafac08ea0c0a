package model

// PayloadKind tags the serialization-safe body representation. Exactly one
// data field is populated for a given kind.
type PayloadKind string

const (
	PayloadString      PayloadKind = "string"
	PayloadFile        PayloadKind = "file"
	PayloadBlob        PayloadKind = "blob"
	PayloadBuffer      PayloadKind = "buffer"
	PayloadArrayBuffer PayloadKind = "arraybuffer"
	PayloadFormData    PayloadKind = "formdata"
)

type PayloadMeta struct {
	Mime string `json:"mime,omitempty" yaml:"mime,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

type SafePayload struct {
	Kind  PayloadKind    `json:"type" yaml:"type"`
	Text  string         `json:"text,omitempty" yaml:"text,omitempty"`
	Data  []byte         `json:"data,omitempty" yaml:"data,omitempty"`
	Parts []FormDataPart `json:"parts,omitempty" yaml:"parts,omitempty"`
	Meta  *PayloadMeta   `json:"meta,omitempty" yaml:"meta,omitempty"`
}

type FormDataPart struct {
	Name     string `json:"name" yaml:"name"`
	IsFile   bool   `json:"isFile,omitempty" yaml:"isFile,omitempty"`
	Value    string `json:"value,omitempty" yaml:"value,omitempty"`
	Data     []byte `json:"data,omitempty" yaml:"data,omitempty"`
	FileName string `json:"fileName,omitempty" yaml:"fileName,omitempty"`
	Mime     string `json:"mime,omitempty" yaml:"mime,omitempty"`
}

// TextPayload wraps a plain string body.
func TextPayload(text string) *SafePayload {
	return &SafePayload{Kind: PayloadString, Text: text}
}

type RequestActions struct {
	Request  []RunnableAction `json:"request,omitempty" yaml:"request,omitempty"`
	Response []RunnableAction `json:"response,omitempty" yaml:"response,omitempty"`
}

// Request is the declarative description of a single HTTP exchange. Headers
// travel as a raw newline-delimited block, matching the model boundary of the
// surrounding toolkit.
type Request struct {
	Method        string            `json:"method" yaml:"method"`
	URL           string            `json:"url" yaml:"url"`
	Headers       string            `json:"headers,omitempty" yaml:"headers,omitempty"`
	Payload       *SafePayload      `json:"payload,omitempty" yaml:"payload,omitempty"`
	Authorization []Authorization   `json:"authorization,omitempty" yaml:"authorization,omitempty"`
	Actions       *RequestActions   `json:"actions,omitempty" yaml:"actions,omitempty"`
	Certificates  []Certificate     `json:"certificates,omitempty" yaml:"certificates,omitempty"`
	Settings      map[string]string `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Clone returns a shallow copy safe for per-redirect mutation of method,
// URL and headers. Payload and config slices are shared.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

type SentRequest struct {
	Request
	StartTime int64 `json:"startTime" yaml:"startTime"`
	EndTime   int64 `json:"endTime" yaml:"endTime"`
}
