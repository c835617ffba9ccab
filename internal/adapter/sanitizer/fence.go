// Package sanitizer cleans up documentation text produced by a model.
package sanitizer

import (
	"regexp"
	"strings"
)

var (
	reFenceJSON     = regexp.MustCompile("(?i)^```json\\s*")
	reFence         = regexp.MustCompile("^```\\s*")
	reTickJSON      = regexp.MustCompile("(?i)^`json\\b")
	reTickJSONStrip = regexp.MustCompile("(?i)^`json\\s*")
	reBareJSON      = regexp.MustCompile(`(?i)^json\s*{`)
	reBareJSONStrip = regexp.MustCompile(`(?i)^json\s*`)
)

// StripJSONCodeFence removes a code fence or a "json" marker wrapped
// around a payload.
func StripJSONCodeFence(s string) string {
	s = strings.TrimSpace(s)

	switch {
	case reFenceJSON.MatchString(s) && strings.HasSuffix(s, "```"):
		s = strings.TrimSuffix(reFenceJSON.ReplaceAllString(s, ""), "```")
	case strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```"):
		s = strings.TrimSuffix(reFence.ReplaceAllString(s, ""), "```")
	case reTickJSON.MatchString(s) && strings.HasSuffix(s, "`"):
		s = strings.TrimSuffix(reTickJSONStrip.ReplaceAllString(s, ""), "`")
	case reBareJSON.MatchString(s) && strings.HasSuffix(s, "}"):
		s = reBareJSONStrip.ReplaceAllString(s, "")
	}

	return strings.TrimSpace(s)
}
