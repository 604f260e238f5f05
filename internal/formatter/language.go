package formatter

import "strings"

// languageIndicators maps a language to the substrings that betray it.
// It is a slice, not a map: the first language with a matching indicator
// wins, so declaration order is part of the contract.
var languageIndicators = []struct {
	Language   string
	Indicators []string
}{
	{"javascript", []string{"const", "let", "var", "function", "console.log", "export", "import", "=>"}},
	{"python", []string{"def", "import", "print", "class", "if __name__"}},
	{"java", []string{"public class", "private", "protected", "void", "String[]"}},
	{"html", []string{"<!DOCTYPE", "<html>", "<div>", "<p>"}},
	{"css", []string{"{", "margin:", "padding:", "color:"}},
	{"sql", []string{"SELECT", "FROM", "WHERE", "INSERT INTO", "CREATE TABLE"}},
}

// Languages returns the detectable languages in detection order.
func Languages() []string {
	out := make([]string, len(languageIndicators))
	for i, l := range languageIndicators {
		out[i] = l.Language
	}
	return out
}

// DetectLanguage guesses the language of code from substring indicators.
// It returns false when no indicator is present.
func DetectLanguage(code string) (string, bool) {
	for _, l := range languageIndicators {
		for _, ind := range l.Indicators {
			if strings.Contains(code, ind) {
				return l.Language, true
			}
		}
	}
	return "", false
}

// FormatCode wraps code in a fence tagged with the detected language, or
// in an untagged fence when nothing is detected.
func FormatCode(code string) string {
	lang, _ := DetectLanguage(code)
	return Fence + lang + "\n" + code + "\n" + Fence
}
