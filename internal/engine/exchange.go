package engine

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptrace"
	"strconv"
	"strings"
	"time"

	"github.com/unkn0wn-root/reqrun/internal/cookies"
	"github.com/unkn0wn-root/reqrun/internal/headerblock"
	"github.com/unkn0wn-root/reqrun/internal/model"
	"github.com/unkn0wn-root/reqrun/internal/tlsconfig"
)

type hopResult struct {
	response *model.Response
	start    int64
	end      int64
}

// exchange performs one request/response round trip. Transport failures
// never escape as errors; they come back as a status-0 response.
func (e *Engine) exchange(ctx context.Context, client *http.Client, req *model.Request, body []byte) hopResult {
	start := time.Now()
	resp, raw, timings, err := e.roundTrip(ctx, client, req, body)
	end := time.Now()

	hop := hopResult{start: start.UnixMilli(), end: end.UnixMilli()}
	if err != nil {
		hop.response = model.ErrorResponse(classifyTransportError(err, e.aborted.Load()))
		return hop
	}

	e.rawBody = raw
	e.responseSize += int64(len(raw))
	resp.Timings = timings
	resp.LoadingTime = end.Sub(start).Milliseconds()
	hop.response = resp
	return hop
}

func (e *Engine) roundTrip(ctx context.Context, client *http.Client, req *model.Request, body []byte) (*model.Response, []byte, *model.Timings, error) {
	var reader *bytes.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	var httpReq *http.Request
	var err error
	if reader != nil {
		httpReq, err = http.NewRequestWithContext(ctx, req.Method, req.URL, reader)
	} else {
		httpReq, err = http.NewRequestWithContext(ctx, req.Method, req.URL, nil)
	}
	if err != nil {
		return nil, nil, nil, err
	}

	headers := headerblock.Parse(req.Headers)
	e.mergeCookies(req.URL, &headers)
	for _, field := range headers.Fields() {
		httpReq.Header.Add(field.Name, field.Value)
	}
	if !headers.Has("accept-encoding") {
		httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")
	}

	collector := newTimingCollector()
	httpReq = httpReq.WithContext(httptrace.WithClientTrace(httpReq.Context(), collector.trace()))

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := readAll(resp.Body)
	if err != nil {
		return nil, nil, nil, err
	}

	e.currentHeaders = headerblock.FromMap(resp.Header)
	decoded, err := e.decompress(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return nil, nil, nil, err
	}

	response := &model.Response{
		Status:     resp.StatusCode,
		StatusText: statusText(resp.Status, resp.StatusCode),
		Headers:    e.currentHeaders.String(),
	}
	if len(decoded) > 0 {
		mime := resp.Header.Get("Content-Type")
		response.Payload = &model.SafePayload{
			Kind: model.PayloadBuffer,
			Data: decoded,
			Meta: &model.PayloadMeta{Mime: mime},
		}
	}
	return response, raw, collector.timings(time.Now()), nil
}

// mergeCookies folds jar cookies for the hop URL into any caller-supplied
// cookie header.
func (e *Engine) mergeCookies(rawURL string, headers *headerblock.List) {
	list, err := e.jar.ListCookies(rawURL)
	if err != nil || len(list) == 0 {
		return
	}
	value := cookies.Header(list)
	if existing, ok := headers.Get("cookie"); ok && existing != "" {
		value = existing + "; " + value
	}
	headers.Set("cookie", value)
}

func (e *Engine) buildHTTPClient(opts Options, certs []model.Certificate) (*http.Client, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true,
	}

	if opts.ProxyURL != "" {
		proxyURL, err := parseProxy(opts.ProxyURL)
		if err != nil {
			return nil, err
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	if opts.Insecure || len(opts.RootCAs) > 0 || len(certs) > 0 {
		tlsCfg, err := tlsconfig.Build(tlsconfig.Files{
			RootCAs:  opts.RootCAs,
			Insecure: opts.Insecure,
		}, certs, opts.BaseDir)
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = tlsCfg
	}

	// Redirects are followed by the engine loop, never by the client, so
	// every hop is observed and logged.
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

// classifyTransportError maps the failure into the serializable error shape.
func classifyTransportError(err error, aborted bool) error {
	switch {
	case aborted || errors.Is(err, context.Canceled):
		return errors.New("The request was aborted")
	case errors.Is(err, context.DeadlineExceeded):
		return errors.New("An operation timed out")
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return errors.New("An operation timed out")
		}
		return err
	}
}

func statusText(status string, code int) string {
	text := strings.TrimSpace(strings.TrimPrefix(status, strconv.Itoa(code)))
	if text != "" {
		return text
	}
	return http.StatusText(code)
}

func parseBool(value string) (bool, error) {
	return strconv.ParseBool(strings.TrimSpace(value))
}
