package sanitizer

import (
	"regexp"
	"strings"
)

var (
	sectionHeadings = []string{
		"High-Level Summary",
		"Key Features",
		"Process Flow",
		"Business Value",
		"Setup Instructions",
		"Configuration Details",
		"Overview",
		"Process",
		"Use Cases",
		"Integrations",
		"Recommendations",
	}

	reBoldKey      = regexp.MustCompile(`\*\*"([^"]+)"\*\*\s*:`)
	reQuotedKey    = regexp.MustCompile(`'([^']+)'\s*:`)
	invisibleChars = strings.NewReplacer("\u2028", "", "\u2029", "", "\u200b", "")
	reBullet       = regexp.MustCompile(`(?m)^[ \t]*(?:[•‣▪●■]+[ \t]*|\*+[ \t]+)`)
	reH1           = regexp.MustCompile(`(?m)^#[ \t]+`)
	reHeadingLine  = regexp.MustCompile(`^#{1,6}[ \t]`)
	reListItem     = regexp.MustCompile(`^[ \t]*-[ \t]+`)
	reShortWord    = regexp.MustCompile(`^[A-Za-z]{1,8}$`)

	headingRules = buildHeadingRules(sectionHeadings)
)

type headingRule struct {
	heading string
	plain   *regexp.Regexp // first plain line starting with the heading
	inline  *regexp.Regexp // first "## heading body" line
	tight   *regexp.Regexp // every "##heading" spelling
}

func buildHeadingRules(headings []string) []headingRule {
	rules := make([]headingRule, 0, len(headings))
	for _, h := range headings {
		q := regexp.QuoteMeta(h)
		rules = append(rules, headingRule{
			heading: h,
			plain:   regexp.MustCompile(`(?im)^[ \t]*` + q + `\b[ \t]*(.+)?$`),
			inline:  regexp.MustCompile(`(?im)^##[ \t]*` + q + `\b[ \t]+(.+)$`),
			tight:   regexp.MustCompile(`(?im)^##[ \t]*` + q + `\b`),
		})
	}

	return rules
}

// Sanitize normalizes model output before it is stored. JSON payloads are
// returned trimmed; markdown gets consistent headings, bullets and
// spacing, ending with a single newline.
func Sanitize(input string) string {
	if input == "" {
		return ""
	}

	s := StripJSONCodeFence(input)
	s = reBoldKey.ReplaceAllString(s, `"$1":`)
	s = reQuotedKey.ReplaceAllString(s, `"$1":`)

	if compact := strings.TrimSpace(s); strings.HasPrefix(compact, "{") && strings.HasSuffix(compact, "}") {
		return compact
	}

	s = normalizeNewlines(s)
	s = invisibleChars.Replace(s)
	s = joinSoftWraps(s)
	s = reBullet.ReplaceAllString(s, "- ")
	s = reH1.ReplaceAllString(s, "## ")

	for _, rule := range headingRules {
		s = rule.apply(s)
	}

	lines := strings.Split(s, "\n")
	lines = joinHeadingFragments(lines)
	lines = spaceBlocks(lines)
	s = strings.Join(lines, "\n")

	s = reManyNewlines.ReplaceAllString(s, "\n\n")

	return strings.TrimRight(s, " \t\n\r\f\v") + "\n"
}

func (r headingRule) apply(s string) string {
	s = replaceFirst(r.plain, s, func(groups []string) string {
		if body := strings.TrimSpace(groups[1]); body != "" {
			return "## " + r.heading + "\n\n" + body
		}

		return "## " + r.heading
	})

	s = replaceFirst(r.inline, s, func(groups []string) string {
		return "## " + r.heading + "\n\n" + strings.TrimSpace(groups[1])
	})

	return r.tight.ReplaceAllString(s, "## "+r.heading)
}

func replaceFirst(re *regexp.Regexp, s string, repl func(groups []string) string) string {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}

	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}

	return s[:loc[0]] + repl(groups) + s[loc[1]:]
}

// joinSoftWraps replaces a newline between two ASCII letters with a space.
func joinSoftWraps(s string) string {
	b := []byte(s)
	for i := 1; i < len(b)-1; i++ {
		if b[i] == '\n' && isASCIILetter(b[i-1]) && isASCIILetter(b[i+1]) {
			b[i] = ' '
		}
	}

	return string(b)
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// joinHeadingFragments glues a short word that was split off a heading
// back onto it. At most one line is joined per heading.
func joinHeadingFragments(lines []string) []string {
	for i := 0; i < len(lines)-1; i++ {
		line := strings.TrimSpace(lines[i])
		next := strings.TrimSpace(lines[i+1])

		if !reHeadingLine.MatchString(lines[i]) || !reShortWord.MatchString(next) || !isASCIILetter(line[len(line)-1]) {
			continue
		}

		lines[i] += next
		lines = append(lines[:i+1], lines[i+2:]...)
	}

	return lines
}

// spaceBlocks puts blank lines around headings and before the first item
// of a list, and normalizes list markers.
func spaceBlocks(lines []string) []string {
	res := make([]string, 0, len(lines)+8)

	for i, line := range lines {
		prev := ""
		if len(res) > 0 {
			prev = res[len(res)-1]
		}

		switch {
		case reHeadingLine.MatchString(line):
			if strings.TrimSpace(prev) != "" {
				res = append(res, "")
			}

			res = append(res, line)
			if i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
				res = append(res, "")
			}
		case reListItem.MatchString(line):
			if strings.TrimSpace(prev) != "" && !reListItem.MatchString(prev) {
				res = append(res, "")
			}

			res = append(res, reListItem.ReplaceAllString(line, "- "))
		default:
			res = append(res, line)
		}
	}

	return res
}
