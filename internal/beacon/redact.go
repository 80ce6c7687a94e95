package beacon

import "regexp"

// Display redaction filter. Email- and phone-like substrings (plus IPs,
// card numbers and SSN-like patterns) are replaced with fixed placeholders
// before content leaves the service boundary.
//
// This is a best-effort courtesy layer, not a security boundary: the
// authoritative PII scrub happens in the AI sanitization pipeline before
// storage. Do not rely on these regexes for anything stronger than display
// hygiene.
var redactionRules = []struct {
	placeholder string
	pattern     *regexp.Regexp
}{
	{"[EMAIL REDACTED]", regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)},
	{"[CARD REDACTED]", regexp.MustCompile(`\b(?:\d{4}[\s-]?){3}\d{4}\b`)},
	{"[SSN REDACTED]", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"[PHONE REDACTED]", regexp.MustCompile(`\b(?:\+\d{1,2}\s?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}\b`)},
	{"[IP REDACTED]", regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)},
}

// Redact replaces PII-like substrings with placeholder tokens.
func Redact(text string) string {
	if text == "" {
		return ""
	}
	for _, rule := range redactionRules {
		text = rule.pattern.ReplaceAllString(text, rule.placeholder)
	}
	return text
}
