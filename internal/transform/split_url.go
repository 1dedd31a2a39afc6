package transform

import (
	"net/url"
	"strings"

	"github.com/awgo/awserver/internal/models"
)

// SplitURLEvent parses data["url"], if present and well-formed, into
// data["$protocol"], data["$domain"] (www. stripped), data["$path"], and
// data["$params"]. Events without a parseable url are returned
// unchanged.
func SplitURLEvent(e models.Event) models.Event {
	raw, ok := e.Data["url"]
	if !ok {
		return e
	}
	s, ok := raw.(string)
	if !ok {
		return e
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return e
	}

	out := e.Clone()
	out.Data["$protocol"] = u.Scheme
	out.Data["$domain"] = strings.TrimPrefix(u.Hostname(), "www.")
	out.Data["$path"] = u.Path
	out.Data["$params"] = u.RawQuery
	return out
}
