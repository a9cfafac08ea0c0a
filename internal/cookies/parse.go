package cookies

import (
	"net/http"
	"time"

	"github.com/unkn0wn-root/reqrun/internal/model"
)

func nowMilli() int64 {
	return time.Now().UnixMilli()
}

// ParseSetCookie converts raw Set-Cookie header values into model cookies.
// The cookies are not yet normalized; callers scope them to the hop URL via
// the jar's SetCookies.
func ParseSetCookie(values []string) []model.Cookie {
	if len(values) == 0 {
		return nil
	}

	header := http.Header{}
	for _, v := range values {
		header.Add("Set-Cookie", v)
	}
	parsed := (&http.Response{Header: header}).Cookies()

	out := make([]model.Cookie, 0, len(parsed))
	for _, c := range parsed {
		cookie := model.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
			SameSite: sameSite(c.SameSite),
		}
		switch {
		case c.MaxAge > 0:
			cookie.ExpirationDate = nowMilli() + int64(c.MaxAge)*1000
		case c.MaxAge < 0:
			cookie.ExpirationDate = 1
		case !c.Expires.IsZero():
			cookie.ExpirationDate = c.Expires.UnixMilli()
		default:
			cookie.Session = true
		}
		out = append(out, cookie)
	}
	return out
}

func sameSite(s http.SameSite) model.SameSite {
	switch s {
	case http.SameSiteLaxMode:
		return model.SameSiteLax
	case http.SameSiteStrictMode:
		return model.SameSiteStrict
	case http.SameSiteNoneMode:
		return model.SameSiteNone
	default:
		return model.SameSiteUnspecified
	}
}
