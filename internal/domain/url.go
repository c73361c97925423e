package domain

import "net/url"

// ParseAbsoluteURL parses raw and reports whether it is an absolute URL, i.e. it
// has a scheme and something after it. Relative references and garbage are rejected.
func ParseAbsoluteURL(raw string) (*url.URL, bool) {
	if raw == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return nil, false
	}
	if u.Host == "" && u.Opaque == "" && u.Path == "" {
		return nil, false
	}
	return u, true
}
