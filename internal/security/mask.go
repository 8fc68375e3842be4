// Package security provides credential masking and read-only access control.
package security

import (
	"regexp"
	"strings"

	"board-tracker/internal/models"
)

// sensitiveFields contains field names that should be masked in logs.
var sensitiveFields = map[string]bool{
	"key":        true,
	"api_key":    true,
	"apikey":     true,
	"secret":     true,
	"api_secret": true,
	"passphrase": true,
	"password":   true,
	"token":      true,
}

// sensitivePatterns contains regex patterns for sensitive data.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|api[_-]?secret|secret|passphrase|password)[=:]\s*["']?([^\s"',}]+)["']?`),
}

// MaskCredential masks all but the edges of a credential.
func MaskCredential(value string) string {
	if len(value) == 0 {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	if len(value) <= 8 {
		return value[:2] + strings.Repeat("*", len(value)-2)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// IsSensitiveField checks if a field name is sensitive.
func IsSensitiveField(field string) bool {
	field = strings.ToLower(field)
	if i := strings.LastIndex(field, "."); i >= 0 {
		field = field[i+1:]
	}
	return sensitiveFields[field]
}

// MaskString masks credential assignments embedded in free text.
func MaskString(input string) string {
	result := input
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			sub := pattern.FindStringSubmatch(match)
			if len(sub) < 3 {
				return MaskCredential(match)
			}
			return strings.Replace(match, sub[2], MaskCredential(sub[2]), 1)
		})
	}
	return result
}

// RedactController returns a copy of c with credentials masked.
func RedactController(c models.Controller) models.Controller {
	c.Exchange.Key = MaskCredential(c.Exchange.Key)
	c.Exchange.Secret = MaskCredential(c.Exchange.Secret)
	c.Exchange.Passphrase = MaskCredential(c.Exchange.Passphrase)
	return c
}
