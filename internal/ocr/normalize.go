package ocr

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var reSpaces = regexp.MustCompile(` {2,}`)

// Normalize cleans page text line by line: NFKC folding (ligatures such as
// "ﬁ", full-width digits), unix line endings, tabs and space runs folded to
// one space, ruled separator lines dropped, at most one blank line in a row,
// surrounding blank space trimmed.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFKC.String(s)
	s = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\t", " ").Replace(s)

	var b strings.Builder
	blank := 0
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(reSpaces.ReplaceAllString(line, " "), " ")
		if isRule(line) {
			line = ""
		}
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

// stripRules blanks lines that are only table borders or underlines, which
// tesseract emits for ruled forms.
func stripRules(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if isRule(l) {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

func isRule(line string) bool {
	t := strings.TrimSpace(line)
	return len(t) >= 3 && strings.Trim(t, "_-=|") == ""
}
