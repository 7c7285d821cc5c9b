// Package diagnostics writes per-page artifacts: live traces, screenshots,
// annotated overlays and the unknown-pattern log.
package diagnostics

import (
	"regexp"
	"strings"
	"time"
)

const stampLayout = "20060102_150405_000000"

var (
	schemeRe   = regexp.MustCompile(`(?i)^https?://`)
	nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

func stamp(now time.Time) string {
	return now.Format(stampLayout)
}

// SiteName reduces a URL to its lowercase host with runs of other
// characters collapsed to "_".
func SiteName(url string) string {
	host := schemeRe.ReplaceAllString(strings.TrimSpace(url), "")
	host, _, _ = strings.Cut(host, "/")
	host, _, _ = strings.Cut(host, ":")
	safe := strings.ToLower(strings.Trim(nonAlnumRe.ReplaceAllString(host, "_"), "_"))
	if safe == "" {
		return "site"
	}
	return safe
}

// traceName sanitizes the whole URL, cut to 80 bytes.
func traceName(url string) string {
	safe := nonAlnumRe.ReplaceAllString(url, "_")
	if len(safe) > 80 {
		safe = safe[:80]
	}
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "url"
	}
	return safe
}
