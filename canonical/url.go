package canonical

import (
	"net/url"
	"strings"
)

// CanonicalURL lowercases the scheme and host, removes the fragment and
// strips trailing slashes. Values that are not absolute http(s) URLs are
// returned trimmed but otherwise unchanged.
func CanonicalURL(raw string) string {
	s := strings.TrimSpace(raw)
	parsed, err := url.Parse(s)
	if err != nil {
		return s
	}
	scheme := strings.ToLower(parsed.Scheme)
	if (scheme != "http" && scheme != "https") || parsed.Host == "" {
		return s
	}

	parsed.Scheme = scheme
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.RawPath = ""
	return parsed.String()
}

// NativeID picks the identifier a source uses for a listing: the explicit
// id when present, otherwise the last path segment of the URL, otherwise the
// canonical URL itself.
func NativeID(id, rawURL string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}

	canonical := CanonicalURL(rawURL)
	if parsed, err := url.Parse(canonical); err == nil {
		segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if last := segments[len(segments)-1]; last != "" {
			return last
		}
	}
	return canonical
}
