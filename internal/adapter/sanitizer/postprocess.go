package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxRecentStarters = 3

var (
	reVersionLine  = regexp.MustCompile(`(?m)^.*[Tt]emplate\s+(?:was\s+)?created\s+in\s+n8n\s+v?[\d.]+.*$`)
	reIntensifiers = regexp.MustCompile(`(?i)\b(?:very|extremely|highly|significantly)\s+`)
	reManyNewlines = regexp.MustCompile(`\n{3,}`)
	reHorizontalWS = regexp.MustCompile(`[ \t\f]+`)
	reSentenceEnd  = regexp.MustCompile(`[.!?][ \t]+`)

	fillerPhrases = []*regexp.Regexp{
		regexp.MustCompile(`(?i)In conclusion[,\s]`),
		regexp.MustCompile(`Ultimately[,\s]`),
		regexp.MustCompile(`Furthermore[,\s]`),
		regexp.MustCompile(`Moreover[,\s]`),
		regexp.MustCompile(`(?i)It is important to note that`),
		regexp.MustCompile(`(?i)It should be noted that`),
		regexp.MustCompile(`(?i)It is worth mentioning that`),
		regexp.MustCompile(`(?i)As previously mentioned`),
		regexp.MustCompile(`(?i)As mentioned above`),
		regexp.MustCompile(`(?i)As stated earlier`),
	}

	plainWords = newWordReplacer(map[string]string{
		"utilize":         "use",
		"utilizes":        "uses",
		"utilized":        "used",
		"utilizing":       "using",
		"utilization":     "use",
		"facilitate":      "help",
		"facilitates":     "helps",
		"facilitated":     "helped",
		"facilitating":    "helping",
		"leverage":        "use",
		"leverages":       "uses",
		"leveraged":       "used",
		"leveraging":      "using",
		"implement":       "set up",
		"implements":      "sets up",
		"implemented":     "set up",
		"implementing":    "setting up",
		"implementation":  "setup",
		"implementations": "setups",
		"optimize":        "improve",
		"optimizes":       "improves",
		"optimized":       "improved",
		"optimizing":      "improving",
		"optimization":    "improvement",
		"optimizations":   "improvements",
		"enhance":         "improve",
		"enhances":        "improves",
		"enhanced":        "improved",
		"enhancing":       "improving",
		"enhancement":     "improvement",
		"enhancements":    "improvements",
	})
)

// PostProcess removes filler from generated documentation: version
// notes, stock phrases, inflated vocabulary, repeated sentence openers
// and intensifiers. Whitespace is normalized and the result trimmed.
func PostProcess(text string) string {
	s := StripJSONCodeFence(text)
	s = normalizeNewlines(s)
	s = reVersionLine.ReplaceAllString(s, "")

	for _, re := range fillerPhrases {
		s = re.ReplaceAllString(s, "")
	}

	s = plainWords.replace(s)
	s = varySentenceStarters(s)
	s = reIntensifiers.ReplaceAllString(s, "")
	s = reManyNewlines.ReplaceAllString(s, "\n\n")
	s = reHorizontalWS.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}

type wordReplacer struct {
	re    *regexp.Regexp
	words map[string]string
}

func newWordReplacer(words map[string]string) *wordReplacer {
	alts := make([]string, 0, len(words))
	for w := range words {
		alts = append(alts, regexp.QuoteMeta(w))
	}

	return &wordReplacer{
		re:    regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`),
		words: words,
	}
}

// replace swaps whole words, keeping an upper case first letter.
func (r *wordReplacer) replace(s string) string {
	return r.re.ReplaceAllStringFunc(s, func(m string) string {
		repl, ok := r.words[strings.ToLower(m)]
		if !ok {
			return m
		}

		if first, _ := utf8.DecodeRuneInString(m); unicode.IsUpper(first) {
			return capitalize(repl)
		}

		return repl
	})
}

// varySentenceStarters rewrites a sentence that opens with "The workflow"
// or "This workflow" when at least two of the previous three sentences
// opened the same way. Line breaks are kept.
func varySentenceStarters(s string) string {
	var recent []string

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		var b strings.Builder

		start := 0
		ends := reSentenceEnd.FindAllStringIndex(line, -1)
		for n := 0; n <= len(ends); n++ {
			end, next := len(line), len(line)
			if n < len(ends) {
				end, next = ends[n][0], ends[n][1]
			}

			sentence, punct := line[start:end], line[end:next]
			start = next

			words := strings.Fields(sentence)
			if len(words) < 3 {
				b.WriteString(sentence)
				b.WriteString(punct)

				continue
			}

			lead := sentence[:len(sentence)-len(strings.TrimLeft(sentence, " \t"))]
			starter := strings.ToLower(words[0] + " " + words[1])

			count := 0
			for _, r := range recent {
				if r == starter {
					count++
				}
			}

			if count >= 2 && len(words) > 4 && (starter == "the workflow" || starter == "this workflow") {
				words = rephrase(words, count)
			}

			b.WriteString(lead)
			b.WriteString(strings.Join(words, " "))
			b.WriteString(punct)

			recent = append(recent, starter)
			if len(recent) > maxRecentStarters {
				recent = recent[1:]
			}
		}

		lines[i] = b.String()
	}

	return strings.Join(lines, "\n")
}

func rephrase(words []string, count int) []string {
	if count%2 == 0 {
		if words[0] == "The" {
			words[0] = "This"
		} else {
			words[0] = "The"
		}

		return words
	}

	verb, ok := strings.CutSuffix(words[2], "s")
	if !ok || verb == "" {
		return words
	}

	return append([]string{capitalize(verb), "happens", "when"}, words[3:]...)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	return strings.ReplaceAll(s, "\r", "\n")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}
