package validator

import (
	"net/url"
	"regexp"
	"strings"
)

const maxURLLength = 2048

// hostPattern accepts a dotted domain with a TLD, localhost, or a dotted-quad address,
// each with an optional port.
var hostPattern = regexp.MustCompile(`(?i)^(` +
	`[a-z0-9-]+(\.[a-z0-9-]+)*\.[a-z]{2,}` +
	`|localhost` +
	`|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}` +
	`)(:\d{1,5})?$`)

// IsValidURL reports whether raw looks like a destination worth shortening.
// A scheme is optional; when present it must be http or https.
func IsValidURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxURLLength {
		return false
	}

	candidate := raw
	if !strings.Contains(raw, "://") {
		candidate = "http://" + raw
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return hostPattern.MatchString(u.Host)
}
