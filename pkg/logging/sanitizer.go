// Package logging scrubs credentials and traveler PII out of anything that
// reaches a log line.
package logging

import (
	"regexp"
)

const (
	// MaxQueryLogLength caps how much of a SQL query a log line may carry.
	MaxQueryLogLength = 100
	// RedactedText replaces anything scrubbed.
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx up to the next delimiter
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// user:pass@host credentials embedded in a URL
	connStringPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)

	// Passport-style document numbers: one or two letters then six to nine
	// digits, the shape the extraction pipeline produces for most issuing
	// countries.
	documentNumberPattern = regexp.MustCompile(`\b[A-Z]{1,2}[0-9]{6,9}\b`)

	// Email addresses inside extracted text.
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
)

// redactCredentials strips password parameters and URL-embedded credentials.
func redactCredentials(s string) string {
	s = passwordPattern.ReplaceAllString(s, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(s, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeConnectionString scrubs a connection string before it is logged.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	return redactCredentials(connStr)
}

// SanitizeError scrubs an error message before logging. Database errors in
// particular tend to echo the connection string back.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return redactCredentials(err.Error())
}

// SanitizePII removes document numbers and email addresses from text before
// logging. Extracted text from passport scans and booking emails is full of
// both; log lines must never carry them.
func SanitizePII(s string) string {
	if s == "" {
		return ""
	}

	sanitized := documentNumberPattern.ReplaceAllString(s, RedactedText)
	return emailPattern.ReplaceAllString(sanitized, RedactedText)
}

// SanitizeQuery truncates a SQL query to MaxQueryLogLength and scrubs
// passwords and document numbers that may appear in literals.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}

	sanitized := query
	if len(sanitized) > MaxQueryLogLength {
		sanitized = sanitized[:MaxQueryLogLength] + "..."
	}

	sanitized = passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	return documentNumberPattern.ReplaceAllString(sanitized, RedactedText)
}

// TruncateString shortens s to maxLen, marking the cut with an ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
