// Package redirect holds the pure redirect-following policy: whether a
// status warrants a new hop, whether the replay downgrades to GET, and the
// loop guard over visited hop URLs.
package redirect

import (
	"net/url"
	"strings"

	"github.com/unkn0wn-root/reqrun/internal/model"
)

type Options struct {
	Redirect bool
	ForceGet bool
	Location string
}

// Decide applies HTTP redirect semantics. Body-bearing methods are not
// silently replayed on 301/302/307; 303 always replays as GET.
func Decide(status int, method, location string) Options {
	switch status {
	case 301, 302, 307:
		if !strings.EqualFold(method, "GET") && !strings.EqualFold(method, "HEAD") {
			return Options{}
		}
		return Options{Redirect: true, Location: location}
	case 303:
		return Options{Redirect: true, ForceGet: true, Location: location}
	default:
		return Options{}
	}
}

// IsLoop reports whether the resolved location was already visited. Exact
// string membership over normalized absolute URLs, not a cycle detector.
func IsLoop(location string, visited []model.ResponseRedirect) bool {
	for i := range visited {
		if visited[i].URL == location {
			return true
		}
	}
	return false
}

// Resolve turns a possibly-relative Location header into an absolute URL
// against the current request URL. A malformed location reports false, which
// the engine treats as "stop following, current response is final".
func Resolve(location, requestURL string) (string, bool) {
	if strings.TrimSpace(location) == "" {
		return "", false
	}
	base, err := url.Parse(requestURL)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme == "" || resolved.Host == "" {
		return "", false
	}
	return resolved.String(), true
}
