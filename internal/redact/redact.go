// Package redact strips credentials, file paths and SQL from error text
// before it is logged.
package redact

import "regexp"

// Placeholders written in place of redacted text.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	PathPlaceholder       = "[REDACTED_PATH]"
	SQLPlaceholder        = "[REDACTED_SQL]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Rules run in order; the DSN rule must run before the path rule.
var rules = []rule{
	{
		regexp.MustCompile(`(?i)\b(postgres|postgresql|file)://[^@\s]+@`),
		CredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(password|passwd|pwd)\s*[=:]\s*[^\s&'"]+`),
		CredentialPlaceholder,
	},
	{
		regexp.MustCompile(
			`(?i)\b(SELECT|INSERT|UPDATE|DELETE)[\s\w,*()]+(?:FROM|INTO|SET)(?:[\s\w,*()='"]+)?`,
		),
		SQLPlaceholder,
	},
	{
		regexp.MustCompile(`(/[\w.-]+){2,}`),
		PathPlaceholder,
	},
}

// String redacts sensitive information from s.
func String(s string) string {
	if s == "" {
		return s
	}
	for _, r := range rules {
		s = r.pattern.ReplaceAllString(s, r.placeholder)
	}
	return s
}

// Error redacts sensitive information from err's message. A nil error
// gives an empty string.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
