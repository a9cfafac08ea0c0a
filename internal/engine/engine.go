// Package engine drives one declarative request through its full lifecycle:
// cookie merge, authorization injection, payload serialization, the network
// exchange with manual redirect following, response decompression, action
// execution and assembly of the final request log.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/reqrun/internal/actions"
	"github.com/unkn0wn-root/reqrun/internal/auth"
	"github.com/unkn0wn-root/reqrun/internal/cookies"
	"github.com/unkn0wn-root/reqrun/internal/duration"
	"github.com/unkn0wn-root/reqrun/internal/errdef"
	"github.com/unkn0wn-root/reqrun/internal/headerblock"
	"github.com/unkn0wn-root/reqrun/internal/model"
	"github.com/unkn0wn-root/reqrun/internal/payload"
	"github.com/unkn0wn-root/reqrun/internal/redirect"
	"github.com/unkn0wn-root/reqrun/internal/vars"
)

type Options struct {
	Timeout         time.Duration
	FollowRedirects bool
	Insecure        bool
	ProxyURL        string
	RootCAs         []string
	BaseDir         string
}

// Deps are the engine's collaborators, injected directly instead of going
// through any event indirection.
type Deps struct {
	Jar      cookies.Jar
	Certs    auth.CertificateStore
	Cache    *auth.BasicCache
	Vars     actions.VariableStore
	Resolver *vars.Resolver
	Logger   zerolog.Logger
}

// Engine executes one logical request at a time. Mutable per-send state is
// unsynchronized by design: a single logical operation is in flight per
// instance, and runners hand each worker its own engine.
type Engine struct {
	opts     Options
	jar      cookies.Jar
	injector *auth.Injector
	actions  *actions.Runner
	resolver *vars.Resolver
	logger   zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	aborted atomic.Bool

	redirects       []model.ResponseRedirect
	currentResponse *model.Response
	currentHeaders  headerblock.List
	rawBody         []byte
	responseSize    int64
}

func New(opts Options, deps Deps) *Engine {
	jar := deps.Jar
	if jar == nil {
		jar = cookies.NewMemoryJar()
	}
	cache := deps.Cache
	if cache == nil {
		cache = auth.NewBasicCache()
	}
	return &Engine{
		opts:     opts,
		jar:      jar,
		injector: &auth.Injector{Certs: deps.Certs, Cache: cache, Logger: deps.Logger},
		actions:  &actions.Runner{Jar: jar, Vars: deps.Vars, Logger: deps.Logger},
		resolver: deps.Resolver,
		logger:   deps.Logger,
	}
}

// Send executes the request. Configuration problems return an error before
// any I/O; transport failures are folded into the log as a status-0
// response, so a non-nil log always comes back once the input is valid.
func (e *Engine) Send(ctx context.Context, req *model.Request) (*model.RequestLog, error) {
	if req == nil || req.URL == "" {
		return nil, errdef.New(errdef.CodeConfig, "request url is required")
	}

	e.cleanUp()
	e.aborted.Store(false)
	working := req.Clone()
	if working.Method == "" {
		working.Method = "GET"
	}
	if err := e.expandTemplates(working); err != nil {
		return nil, err
	}

	opts := applySettings(e.opts, req.Settings)

	if err := e.injector.Process(working); err != nil {
		return nil, err
	}
	if req.Actions != nil {
		if err := e.actions.RunRequest(req.Actions.Request, working); err != nil {
			return nil, err
		}
	}

	headers := headerblock.Parse(working.Headers)
	body, err := payload.ToBuffer(&headers, working.Payload)
	if err != nil {
		return nil, err
	}
	payload.AddContentLength(working.Method, body, &headers)
	working.Headers = headers.String()

	client, err := e.buildHTTPClient(opts, working.Certificates)
	if err != nil {
		return nil, err
	}

	ctx, cancel := e.sendContext(ctx, opts)
	defer cancel()

	start := time.Now()
	for {
		hop := e.exchange(ctx, client, working, body)
		e.currentResponse = hop.response

		if hop.response.IsError() {
			break
		}

		location, _ := e.currentHeaders.Get("location")
		decision := redirect.Decide(hop.response.Status, working.Method, location)
		if !decision.Redirect || !opts.FollowRedirects {
			break
		}
		resolved, ok := redirect.Resolve(location, working.URL)
		if !ok {
			break
		}
		if redirect.IsLoop(resolved, e.redirects) {
			e.logger.Debug().Str("url", resolved).Msg("redirect loop detected")
			break
		}

		e.redirects = append(e.redirects, model.ResponseRedirect{
			URL:       working.URL,
			Response:  hop.response,
			StartTime: hop.start,
			EndTime:   hop.end,
		})
		e.storeCookies(working.URL)
		e.cleanUpRedirect()

		if decision.ForceGet && working.Method != "GET" {
			working.Method = "GET"
			working.Payload = nil
			body = nil
			hdrs := headerblock.Parse(working.Headers)
			hdrs.Delete("content-length")
			hdrs.Delete("content-type")
			working.Headers = hdrs.String()
		}
		working.URL = resolved
	}
	end := time.Now()

	if !e.currentResponse.IsError() {
		e.storeCookies(working.URL)
	}

	var actionErr error
	if req.Actions != nil {
		actionErr = e.actions.RunResponse(req.Actions.Response, working, e.currentResponse)
	}

	log := e.assembleLog(working, body, start.UnixMilli(), end.UnixMilli())
	return log, actionErr
}

// Abort cancels the in-flight operation from any state. Idempotent; the
// flag stops response processing that races the cancellation. Per-send
// buffers are owned by the Send goroutine, which resets them on entry, so
// Abort touches only the flag and the guarded cancel func.
func (e *Engine) Abort() {
	e.aborted.Store(true)
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Aborted reports whether the engine saw an abort since the last send began.
func (e *Engine) Aborted() bool {
	return e.aborted.Load()
}

func (e *Engine) sendContext(ctx context.Context, opts Options) (context.Context, context.CancelFunc) {
	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
	return ctx, cancel
}

// storeCookies writes the current hop's Set-Cookie headers into the jar,
// scoped to that hop's URL. Hop order matters for domain matching.
func (e *Engine) storeCookies(hopURL string) {
	values := e.currentHeaders.Values("set-cookie")
	if len(values) == 0 {
		return
	}
	parsed := cookies.ParseSetCookie(values)
	if err := e.jar.SetCookies(hopURL, parsed); err != nil {
		e.logger.Warn().Err(err).Str("url", hopURL).Msg("store cookies")
	}
}

func (e *Engine) expandTemplates(req *model.Request) error {
	if e.resolver == nil {
		return nil
	}
	expanded, err := e.resolver.ExpandTemplates(req.URL)
	if err != nil {
		return errdef.Wrap(errdef.CodeConfig, err, "expand url")
	}
	req.URL = expanded

	if req.Headers != "" {
		if expanded, err = e.resolver.ExpandTemplates(req.Headers); err == nil {
			req.Headers = expanded
		}
	}
	if req.Payload != nil && req.Payload.Kind == model.PayloadString && req.Payload.Text != "" {
		if expanded, err = e.resolver.ExpandTemplates(req.Payload.Text); err == nil {
			text := req.Payload
			clone := *text
			clone.Text = expanded
			req.Payload = &clone
		}
	}
	return nil
}

// cleanUp resets all per-send state, including the redirect chain.
func (e *Engine) cleanUp() {
	e.redirects = nil
	e.cleanUpRedirect()
	e.responseSize = 0
}

// cleanUpRedirect resets per-hop state while preserving the redirect chain.
func (e *Engine) cleanUpRedirect() {
	e.currentResponse = nil
	e.currentHeaders = headerblock.List{}
	e.rawBody = nil
}

func (e *Engine) assembleLog(sent *model.Request, body []byte, start, end int64) *model.RequestLog {
	size := &model.SizeInfo{
		Request:  int64(len(sent.Headers)) + int64(len(body)),
		Response: e.responseSize,
	}
	return &model.RequestLog{
		ID: uuid.NewString(),
		Request: &model.SentRequest{
			Request:   *sent,
			StartTime: start,
			EndTime:   end,
		},
		Response:  e.currentResponse,
		Redirects: e.redirects,
		Size:      size,
	}
}

// applySettings lets a request override engine options it owns.
func applySettings(opts Options, settings map[string]string) Options {
	if len(settings) == 0 {
		return opts
	}
	effective := opts
	if value, ok := settings["timeout"]; ok {
		if dur, ok := duration.Parse(value); ok {
			effective.Timeout = dur
		}
	}
	if value, ok := settings["followredirects"]; ok {
		if b, err := parseBool(value); err == nil {
			effective.FollowRedirects = b
		}
	}
	if value, ok := settings["insecure"]; ok {
		if b, err := parseBool(value); err == nil {
			effective.Insecure = b
		}
	}
	if value, ok := settings["proxy"]; ok && value != "" {
		effective.ProxyURL = value
	}
	return effective
}
