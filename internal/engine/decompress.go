package engine

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"io"
	"net/url"
	"strings"

	"github.com/andybalholm/brotli"

	"github.com/unkn0wn-root/reqrun/internal/errdef"
)

// decompress decodes a response body per its Content-Encoding. Once the
// engine is aborted it returns nil without touching the data, so a decode
// racing the cancellation can never resurrect a response.
func (e *Engine) decompress(encoding string, data []byte) ([]byte, error) {
	if e.aborted.Load() {
		return nil, nil
	}
	if len(data) == 0 {
		return data, nil
	}

	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return data, nil
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeTransport, err, "gzip decode")
		}
		defer reader.Close()
		return readAll(reader)
	case "deflate":
		// Servers disagree on whether deflate means zlib-wrapped or raw.
		if reader, err := zlib.NewReader(bytes.NewReader(data)); err == nil {
			defer reader.Close()
			return readAll(reader)
		}
		reader := flate.NewReader(bytes.NewReader(data))
		defer reader.Close()
		return readAll(reader)
	case "br":
		return readAll(brotli.NewReader(bytes.NewReader(data)))
	default:
		return data, nil
	}
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeTransport, err, "read response body")
	}
	return data, nil
}

func parseProxy(raw string) (*url.URL, error) {
	proxyURL, err := url.Parse(raw)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeConfig, err, "parse proxy url")
	}
	return proxyURL, nil
}
