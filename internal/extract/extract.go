// Package extract reads a single value out of a request or response given a
// declarative data source descriptor. It backs both conditions and actions
// and never executes caller-supplied code.
package extract

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/unkn0wn-root/reqrun/internal/errdef"
	"github.com/unkn0wn-root/reqrun/internal/headerblock"
	"github.com/unkn0wn-root/reqrun/internal/model"
)

// Value resolves a data source against the exchange. The boolean reports
// whether a value exists; a false with nil error is the "undefined" case
// (missing header, absent query param), while a non-nil error marks a
// configuration problem the caller must fix.
func Value(source model.DataSource, req *model.Request, resp *model.Response) (string, bool, error) {
	switch source.Source {
	case model.SourceValue:
		return source.Value, true, nil
	case model.SourceURL:
		if req == nil {
			return "", false, nil
		}
		return urlPart(req.URL, source.Path)
	case model.SourceHeaders:
		block, ok := headerSide(source.Side, req, resp)
		if !ok {
			return "", false, nil
		}
		list := headerblock.Parse(block)
		value, found := list.Get(source.Path)
		return value, found, nil
	case model.SourceStatus:
		if resp == nil {
			return "", false, nil
		}
		return strconv.Itoa(resp.Status), true, nil
	case model.SourceMethod:
		if req == nil {
			return "", false, nil
		}
		return req.Method, true, nil
	case model.SourceBody:
		return bodyValue(source, req, resp)
	default:
		return "", false, errdef.New(errdef.CodeExtract,
			"unknown data source %q for %q", string(source.Source), string(source.Side))
	}
}

func headerSide(side model.SourceSide, req *model.Request, resp *model.Response) (string, bool) {
	if side == model.SideResponse {
		if resp == nil {
			return "", false
		}
		return resp.Headers, true
	}
	if req == nil {
		return "", false
	}
	return req.Headers, true
}

// urlPart extracts host|protocol|path|query[.param]|hash[.param] from a URL.
// An unparsable URL yields undefined; an unknown segment is an error.
func urlPart(rawURL, path string) (string, bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false, nil
	}

	part, param, _ := strings.Cut(path, ".")
	switch part {
	case "host":
		return u.Host, true, nil
	case "protocol":
		return u.Scheme, true, nil
	case "path":
		return u.Path, true, nil
	case "query":
		if param == "" {
			return u.RawQuery, true, nil
		}
		values := u.Query()
		if _, ok := values[param]; !ok {
			return "", false, nil
		}
		return values.Get(param), true, nil
	case "hash":
		if param == "" {
			return u.Fragment, true, nil
		}
		values, parseErr := url.ParseQuery(u.Fragment)
		if parseErr != nil {
			return "", false, nil
		}
		if _, ok := values[param]; !ok {
			return "", false, nil
		}
		return values.Get(param), true, nil
	default:
		return "", false, errdef.New(errdef.CodeExtract, "unknown path in the URL: %q", part)
	}
}
