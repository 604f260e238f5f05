// Package formatter normalizes the structural markup of model responses.
//
// A response is classified into exactly one Category by an ordered rule
// table; the first rule whose predicate matches rewrites the text. The
// order matters because a single response can satisfy several predicates.
package formatter

import (
	"regexp"
	"strconv"
	"strings"
)

// Category is the structural shape detected in a response.
type Category string

// Supported categories, in evaluation order.
const (
	CategoryCode         Category = "code"
	CategoryNumberedList Category = "numbered-list"
	CategoryBulletList   Category = "bulleted-list"
	CategoryTable        Category = "table"
	CategoryPlain        Category = "plain"
)

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// Fence is the markdown code fence delimiter.
const Fence = "```"

// CodeKeywords are the leading tokens that mark a response as source code.
// Matching is a plain prefix test on the trimmed text.
var CodeKeywords = []string{
	"const", "let", "var", "function", "class",
	"import", "export", "def", "public", "private",
}

var (
	codePrefixPattern = regexp.MustCompile(`^(` + strings.Join(CodeKeywords, "|") + `)`)
	numberedPattern   = regexp.MustCompile(`^\d+\.\s`)
	bulletPattern     = regexp.MustCompile(`^[-*•]\s`)
)

// rule pairs a predicate with the rewrite applied when it matches.
type rule struct {
	category Category
	match    func(text, trimmed string) bool
	apply    func(text string) string
}

// rules is evaluated top to bottom; plain always matches.
var rules = []rule{
	{category: CategoryCode, match: isCode, apply: formatCodeBlock},
	{category: CategoryNumberedList, match: isNumberedList, apply: formatNumberedList},
	{category: CategoryBulletList, match: isBulletList, apply: formatBulletList},
	{category: CategoryTable, match: isTable, apply: formatTable},
	{category: CategoryPlain, match: func(string, string) bool { return true }, apply: formatParagraphs},
}

// Format classifies text and returns it with normalized markup.
// It never fails; empty input yields empty output.
func Format(text string) string {
	if text == "" {
		return text
	}
	return match(text).apply(text)
}

// FormatAny formats string values and returns every other value unchanged.
func FormatAny(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return Format(s)
}

// Classify reports which category Format would apply to text.
func Classify(text string) Category {
	return match(text).category
}

func match(text string) rule {
	trimmed := strings.TrimSpace(text)
	for _, r := range rules {
		if r.match(text, trimmed) {
			return r
		}
	}
	return rules[len(rules)-1]
}

func isFenced(trimmed string) bool {
	return strings.HasPrefix(trimmed, Fence) && strings.HasSuffix(trimmed, Fence)
}

func isCode(_, trimmed string) bool {
	return isFenced(trimmed) || codePrefixPattern.MatchString(trimmed)
}

func formatCodeBlock(text string) string {
	if isFenced(strings.TrimSpace(text)) {
		return text
	}
	return Fence + "\n" + text + "\n" + Fence
}

func isNumberedList(_, trimmed string) bool {
	return numberedPattern.MatchString(trimmed)
}

// formatNumberedList numbers every unnumbered line by its position in the
// response, not relative to the numbered lines around it.
func formatNumberedList(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if numberedPattern.MatchString(strings.TrimSpace(line)) {
			continue
		}
		lines[i] = strconv.Itoa(i+1) + ". " + line
	}
	return strings.Join(lines, "\n")
}

func isBulletList(_, trimmed string) bool {
	return bulletPattern.MatchString(trimmed)
}

func formatBulletList(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if bulletPattern.MatchString(strings.TrimSpace(line)) {
			continue
		}
		lines[i] = "- " + line
	}
	return strings.Join(lines, "\n")
}

func isTable(text, _ string) bool {
	if !strings.Contains(text, "|") {
		return false
	}
	rows := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "|") {
			rows++
		}
	}
	return rows > 1
}

// formatTable inserts a header separator row after the first line unless
// the second line already carries one.
func formatTable(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 1 && strings.Contains(lines[1], "---") {
		return text
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[0], separatorRow(lines[0]))
	out = append(out, lines[1:]...)
	return strings.Join(out, "\n")
}

// separatorRow builds "|" followed by one " --- |" cell per column, where
// the column count is the header's pipe count minus one. A header with a
// single pipe (or none) still gets one cell.
func separatorRow(header string) string {
	columns := strings.Count(header, "|") - 1
	if columns < 1 {
		columns = 1
	}
	return "|" + strings.Repeat(" --- |", columns)
}

// formatParagraphs collapses blank-line runs into single paragraph breaks
// and trims each paragraph.
func formatParagraphs(text string) string {
	parts := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
