package interpret

import (
	"regexp"
	"strings"

	"github.com/usdforge/nimusd/internal/prompt"
)

// markerRe matches a section label at the start of a line, tolerating
// markdown heading and emphasis decoration: "ERRORS:", "## Errors:",
// "**ERRORS:**", "**Errors**: text".
var markerRe = regexp.MustCompile(`(?i)^\s*(?:#{1,6}\s*)?(?:[*_]{1,2}\s*)?(VALID|ERRORS|WARNINGS|SUGGESTIONS|ASSESSMENT)\s*(?:[*_]{1,2})?\s*:\s*(?:[*_]{1,2}(?:\s+|$))?(.*)$`)

// bulletRe matches a list bullet or enumerator prefix.
var bulletRe = regexp.MustCompile(`^(?:[-*•+]|\d{1,3}[.)])\s+`)

// noneItems are placeholder items that mean "this section is empty".
var noneItems = map[string]bool{
	"n/a": true,
	"na":  true,
	"-":   true,
}

// noneRe matches longer placeholder phrasings such as "No errors were
// found" or "None identified".
var noneRe = regexp.MustCompile(`^(?:none|nothing|no (?:errors|warnings|suggestions|issues|problems)(?: or (?:errors|warnings|suggestions|issues|problems))?)(?: (?:were|was|are|is|have been))?(?: (?:found|identified|detected|noted|reported|present|needed|required|to report))?(?: (?:in|for) (?:the |this )?(?:code|script|snippet))?$`)

type section struct {
	name  string
	lines []string
}

// parseMarkers splits reply into marker sections. Labels inside fenced code
// blocks are not markers; fenced lines continue the current item. If no
// marker appears outside fences the fences are ignored, so a reply wrapped in
// a fence together with other text still parses. ok is false when no marker
// is present at all.
func parseMarkers(reply string) (ValidationResult, bool) {
	sections := splitSections(reply, true)
	if len(sections) == 0 {
		sections = splitSections(reply, false)
	}
	if len(sections) == 0 {
		return ValidationResult{}, false
	}

	r := ValidationResult{Parsed: true, Format: FormatMarkers}
	verdict := VerdictUnknown
	sawErrors := false
	for _, s := range sections {
		switch s.name {
		case prompt.MarkerValid:
			if v := parseVerdict(strings.Join(s.lines, " ")); v != VerdictUnknown {
				verdict = v
			}
		case prompt.MarkerErrors:
			sawErrors = true
			r.Errors = append(r.Errors, listItems(s.lines)...)
		case prompt.MarkerWarnings:
			r.Warnings = append(r.Warnings, listItems(s.lines)...)
		case prompt.MarkerSuggestions:
			r.Suggestions = append(r.Suggestions, listItems(s.lines)...)
		case prompt.MarkerAssessment:
			text := strings.TrimSpace(strings.Join(trimLines(s.lines), "\n"))
			if r.Assessment != "" && text != "" {
				r.Assessment += "\n"
			}
			r.Assessment += text
		}
	}

	r.Verdict = fallbackVerdict(verdict, sawErrors, len(r.Errors))
	return r, true
}

// fallbackVerdict decides the verdict when the model gave none: an ERRORS
// section decides it, and without one the verdict stays unknown.
func fallbackVerdict(v Verdict, sawErrors bool, nErrors int) Verdict {
	switch {
	case v != VerdictUnknown:
		return v
	case !sawErrors:
		return VerdictUnknown
	case nErrors > 0:
		return VerdictInvalid
	}
	return VerdictValid
}

func splitSections(reply string, fenceAware bool) []*section {
	var (
		sections []*section
		current  *section
		inFence  bool
	)
	for _, line := range strings.Split(strings.ReplaceAll(reply, "\r\n", "\n"), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if fenceAware && inFence {
			if current != nil {
				current.continueLast(line)
			}
			continue
		}
		if m := markerRe.FindStringSubmatch(line); m != nil {
			current = &section{name: strings.ToUpper(m[1])}
			sections = append(sections, current)
			if rest := strings.TrimSpace(m[2]); rest != "" {
				current.lines = append(current.lines, rest)
			}
			continue
		}
		if current == nil {
			continue // preamble before the first marker
		}
		current.lines = append(current.lines, line)
	}
	return sections
}

// continueLast appends line to the last non-blank line of the section, or
// starts the section with it.
func (s *section) continueLast(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	for i := len(s.lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(s.lines[i]) != "" {
			s.lines[i] += " " + line
			return
		}
	}
	s.lines = append(s.lines, line)
}

// listItems turns section lines into items. Bulleted lines start new items;
// indented unbulleted lines continue the previous item.
func listItems(lines []string) []string {
	var items []string
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		bulleted := bulletRe.MatchString(line)
		if !bulleted && len(items) > 0 && raw != strings.TrimLeft(raw, " \t") {
			items[len(items)-1] += " " + line
			continue
		}
		item := strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
		if item == "" || isNone(item) {
			continue
		}
		items = append(items, item)
	}
	return items
}

func isNone(item string) bool {
	s := strings.ToLower(strings.TrimSpace(item))
	s = strings.Trim(s, ".!*_` ")
	return noneItems[s] || noneRe.MatchString(s)
}

func trimLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseVerdict reads the first word of a VALID section.
func parseVerdict(s string) Verdict {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return VerdictUnknown
	}
	switch strings.Trim(fields[0], ".,;:!*_`()\"'") {
	case "yes", "true", "valid", "pass", "passed", "y":
		return VerdictValid
	case "no", "false", "invalid", "fail", "failed", "n":
		return VerdictInvalid
	}
	return VerdictUnknown
}
