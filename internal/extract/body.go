package extract

import (
	"net/url"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/tidwall/gjson"

	"github.com/unkn0wn-root/reqrun/internal/headerblock"
	"github.com/unkn0wn-root/reqrun/internal/model"
	"github.com/unkn0wn-root/reqrun/internal/payload"
)

// bodyValue selects a body reader by the MIME family of the chosen side.
// Without a content type, or with one no reader understands, the result is
// undefined.
func bodyValue(source model.DataSource, req *model.Request, resp *model.Response) (string, bool, error) {
	body, mime, ok, err := sideBody(source.Side, req, resp)
	if err != nil || !ok || mime == "" {
		return "", false, err
	}

	switch {
	case strings.Contains(mime, "json"):
		result := gjson.Get(body, source.Path)
		if !result.Exists() {
			return "", false, nil
		}
		return result.String(), true, nil
	case strings.Contains(mime, "xml"):
		return xmlValue(body, source.Path)
	case strings.Contains(mime, "x-www-form-urlencoded"):
		values, parseErr := url.ParseQuery(body)
		if parseErr != nil {
			return "", false, nil
		}
		if _, found := values[source.Path]; !found {
			return "", false, nil
		}
		return values.Get(source.Path), true, nil
	default:
		return "", false, nil
	}
}

func xmlValue(body, path string) (string, bool, error) {
	doc, err := xmlquery.Parse(strings.NewReader(body))
	if err != nil {
		return "", false, nil
	}
	node, err := xmlquery.Query(doc, path)
	if err != nil || node == nil {
		return "", false, nil
	}
	return node.InnerText(), true, nil
}

// sideBody resolves the serialized body and content type of the chosen
// side. The request body is serialized lazily from its safe payload.
func sideBody(side model.SourceSide, req *model.Request, resp *model.Response) (body, mime string, ok bool, err error) {
	if side == model.SideResponse {
		if resp == nil || resp.Payload == nil {
			return "", "", false, nil
		}
		list := headerblock.Parse(resp.Headers)
		mime, _ = list.ContentType()
		buf, serializeErr := payload.ToBuffer(&list, resp.Payload)
		if serializeErr != nil {
			return "", "", false, serializeErr
		}
		return string(buf), mime, true, nil
	}

	if req == nil || req.Payload == nil {
		return "", "", false, nil
	}
	list := headerblock.Parse(req.Headers)
	mime, _ = list.ContentType()
	buf, serializeErr := payload.ToBuffer(&list, req.Payload)
	if serializeErr != nil {
		return "", "", false, serializeErr
	}
	return string(buf), mime, true, nil
}
