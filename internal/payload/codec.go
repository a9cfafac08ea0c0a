// Package payload converts between the serialization-safe body
// representation and wire bytes, deriving content-type and content-length
// where the declarative model leaves them implicit.
package payload

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/unkn0wn-root/reqrun/internal/errdef"
	"github.com/unkn0wn-root/reqrun/internal/headerblock"
	"github.com/unkn0wn-root/reqrun/internal/model"
)

// ToBuffer serializes a safe payload to wire bytes, mutating headers when
// the payload dictates a content type. An unsupported payload tag is a
// configuration error, not a transport one.
func ToBuffer(headers *headerblock.List, p *model.SafePayload) ([]byte, error) {
	if p == nil {
		return nil, nil
	}

	switch p.Kind {
	case model.PayloadString:
		return []byte(NormalizeLineEndings(p.Text)), nil
	case model.PayloadFile, model.PayloadBlob:
		if p.Meta != nil && p.Meta.Mime != "" && !headers.Has("content-type") {
			headers.Set("content-type", p.Meta.Mime)
		}
		return p.Data, nil
	case model.PayloadBuffer, model.PayloadArrayBuffer:
		return p.Data, nil
	case model.PayloadFormData:
		return formDataBuffer(headers, p.Parts)
	default:
		return nil, errdef.New(errdef.CodePayload, "unsupported payload type %q", string(p.Kind))
	}
}

func formDataBuffer(headers *headerblock.List, parts []model.FormDataPart) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, part := range parts {
		header := make(textproto.MIMEHeader)
		if part.IsFile {
			header.Set("Content-Disposition",
				"form-data; name="+strconv.Quote(part.Name)+"; filename="+strconv.Quote(part.FileName))
			mime := part.Mime
			if mime == "" {
				mime = "application/octet-stream"
			}
			header.Set("Content-Type", mime)
		} else {
			header.Set("Content-Disposition", "form-data; name="+strconv.Quote(part.Name))
			if part.Mime != "" {
				header.Set("Content-Type", part.Mime)
			}
		}

		field, err := writer.CreatePart(header)
		if err != nil {
			return nil, errdef.Wrap(errdef.CodePayload, err, "create multipart part %s", part.Name)
		}
		data := part.Data
		if !part.IsFile && data == nil {
			data = []byte(part.Value)
		}
		if _, err := field.Write(data); err != nil {
			return nil, errdef.Wrap(errdef.CodePayload, err, "write multipart part %s", part.Name)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, errdef.Wrap(errdef.CodePayload, err, "finalize multipart body")
	}

	headers.Set("content-type", writer.FormDataContentType())
	return buf.Bytes(), nil
}

// NormalizeLineEndings rewrites bare LF and lone CR to CRLF so line-oriented
// text bodies are framed correctly on the wire.
func NormalizeLineEndings(text string) string {
	if text == "" {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '\r':
			b.WriteString("\r\n")
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
		case '\n':
			b.WriteString("\r\n")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// AddContentLength stamps the serialized body length. GET requests are left
// alone; for everything else an existing value is overwritten because a
// stale length would corrupt framing.
func AddContentLength(method string, body []byte, headers *headerblock.List) {
	if strings.EqualFold(method, "GET") {
		return
	}
	headers.Set("content-length", strconv.Itoa(len(body)))
}
