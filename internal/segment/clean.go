package segment

import (
	"regexp"
	"strings"
)

var (
	specialSpaceRe  = regexp.MustCompile("[\u00a0\u2002-\u200b\ufeff]")
	controlCharRe   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	multiSpaceRe    = regexp.MustCompile(` {2,}`)
	multiNewlineRe  = regexp.MustCompile(`(\n[ \t]*){3,}`)
	headerFooterRes = []*regexp.Regexp{
		regexp.MustCompile(`^第\s*\d+\s*页`),
		regexp.MustCompile(`(?i)^Page\s*\d+`),
		regexp.MustCompile(`^\d+\s*/\s*\d+$`),
		regexp.MustCompile(`^-\s*\d+\s*-$`),
		regexp.MustCompile(`^\s*\d+\s*$`),
		regexp.MustCompile(`^_{10,}$`),
		regexp.MustCompile(`^-{10,}$`),
		regexp.MustCompile(`^={10,}$`),
	}
)

// Clean normalizes extracted document text before segmentation: line
// endings and exotic whitespace are unified, control characters
// stripped, runs of spaces and blank lines collapsed, and common
// header/footer artifacts (page numbers, rule lines) removed.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = specialSpaceRe.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = controlCharRe.ReplaceAllString(text, "")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = multiNewlineRe.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isHeaderFooterLine(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// isHeaderFooterLine reports whether a line looks like a page-number or
// separator artifact left over from document extraction.
func isHeaderFooterLine(line string) bool {
	if line == "" {
		return false
	}
	for _, re := range headerFooterRes {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
