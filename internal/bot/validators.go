package bot

import (
	"regexp"
	"strings"
)

var phoneRe = regexp.MustCompile(`^\+?\d{10,12}$`)

// IsValidPhone accepts 10 to 12 digits with an optional leading plus.
func IsValidPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}

// normalizeContactPhone prefixes platform contact numbers with "+", which
// some clients omit.
func normalizeContactPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + phone
}
