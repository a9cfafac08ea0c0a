// Package actions executes the declarative side effects attached to a
// request: cookie mutations and variable captures, optionally guarded by a
// condition.
package actions

import (
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/reqrun/internal/condition"
	"github.com/unkn0wn-root/reqrun/internal/cookies"
	"github.com/unkn0wn-root/reqrun/internal/errdef"
	"github.com/unkn0wn-root/reqrun/internal/extract"
	"github.com/unkn0wn-root/reqrun/internal/model"
)

// VariableStore is the external variables collaborator.
type VariableStore interface {
	Set(name, value string) error
}

// Runner executes runnable actions against injected collaborators.
type Runner struct {
	Jar    cookies.Jar
	Vars   VariableStore
	Logger zerolog.Logger
}

// RunRequest executes request-phase actions before the exchange starts.
func (r *Runner) RunRequest(list []model.RunnableAction, req *model.Request) error {
	return r.run(list, req, nil)
}

// RunResponse executes response-phase actions once the exchange completed.
func (r *Runner) RunResponse(list []model.RunnableAction, req *model.Request, resp *model.Response) error {
	return r.run(list, req, resp)
}

func (r *Runner) run(list []model.RunnableAction, req *model.Request, resp *model.Response) error {
	for i := range list {
		action := list[i]
		if !action.Enabled {
			continue
		}

		ok, err := condition.Satisfied(action.Condition, req, resp)
		if err == nil && !ok {
			continue
		}
		if err == nil {
			err = r.execute(action.Config, req, resp)
		}
		if err == nil {
			continue
		}

		if action.Mode == model.ModeFireAndForget {
			r.Logger.Warn().Err(err).Msg("action failed")
			continue
		}
		return err
	}
	return nil
}

// execute dispatches over the closed action sum. A config type outside the
// sum cannot be constructed by callers, so the default arm is a guard
// against a nil config only.
func (r *Runner) execute(config model.ActionConfig, req *model.Request, resp *model.Response) error {
	switch cfg := config.(type) {
	case model.SetCookieAction:
		return r.setCookie(cfg, req, resp)
	case *model.SetCookieAction:
		return r.setCookie(*cfg, req, resp)
	case model.DeleteCookieAction:
		return r.deleteCookie(cfg, req)
	case *model.DeleteCookieAction:
		return r.deleteCookie(*cfg, req)
	case model.SetVariableAction:
		return r.setVariable(cfg, req, resp)
	case *model.SetVariableAction:
		return r.setVariable(*cfg, req, resp)
	default:
		return errdef.New(errdef.CodeConfig, "action has no configuration")
	}
}

func (r *Runner) setCookie(cfg model.SetCookieAction, req *model.Request, resp *model.Response) error {
	target := cfg.URL
	if cfg.UseRequestURL {
		target = req.URL
	}
	if target == "" {
		return errdef.New(errdef.CodeConfig, "set cookie action requires a url")
	}
	u, err := url.Parse(target)
	if err != nil {
		return errdef.Wrap(errdef.CodeConfig, err, "parse cookie url %q", target)
	}

	value, _, err := extract.Value(cfg.Source, req, resp)
	if err != nil {
		return err
	}

	cookie := model.Cookie{
		Name:     cfg.Name,
		Value:    value,
		Domain:   u.Hostname(),
		Path:     u.Path,
		HostOnly: cfg.HostOnly,
		HTTPOnly: cfg.HTTPOnly,
		Secure:   cfg.Secure,
		Session:  cfg.Session,
	}
	if cfg.Expires != "" {
		expires, parseErr := parseExpires(cfg.Expires)
		if parseErr != nil {
			return parseErr
		}
		cookie.ExpirationDate = expires
	}
	return r.Jar.SetCookies(target, []model.Cookie{cookie})
}

// deleteCookie without a resolvable URL is a no-op by contract.
func (r *Runner) deleteCookie(cfg model.DeleteCookieAction, req *model.Request) error {
	target := cfg.URL
	if cfg.UseRequestURL {
		target = req.URL
	}
	if target == "" {
		return nil
	}
	name := cfg.Name
	if cfg.RemoveAll {
		name = ""
	}
	return r.Jar.DeleteCookies(target, name)
}

func (r *Runner) setVariable(cfg model.SetVariableAction, req *model.Request, resp *model.Response) error {
	value, ok, err := extract.Value(cfg.Source, req, resp)
	if err != nil {
		return err
	}
	if !ok {
		return errdef.New(errdef.CodeAction, "cannot read value for the action %q", cfg.Name)
	}
	return r.Vars.Set(cfg.Name, value)
}

// parseExpires accepts a unix-milliseconds number or a date string.
func parseExpires(raw string) (int64, error) {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ms, nil
	}
	for _, layout := range []string{time.RFC3339, time.RFC1123, time.RFC850, time.ANSIC} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, errdef.New(errdef.CodeConfig, "invalid cookie expiration %q", raw)
}
