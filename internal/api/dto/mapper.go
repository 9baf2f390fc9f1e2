package dto

import (
	"net/url"
	"strings"
)

// Mapper converts wire records into domain values. It resolves relative
// asset paths (for example "/uploads/cover.png") against the API origin.
type Mapper struct {
	origin string
}

// NewMapper derives the asset origin from the API base URL ("/api" is dropped).
func NewMapper(apiBaseURL string) Mapper {
	u, err := url.Parse(apiBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Mapper{}
	}
	return Mapper{origin: u.Scheme + "://" + u.Host}
}

// AssetURL returns an absolute URL for u when it is origin-relative.
func (m Mapper) AssetURL(u string) string {
	if u == "" {
		return ""
	}
	if parsed, err := url.Parse(u); err == nil && parsed.IsAbs() {
		return parsed.String()
	}
	if strings.HasPrefix(u, "/") && m.origin != "" {
		return m.origin + u
	}
	return u
}
