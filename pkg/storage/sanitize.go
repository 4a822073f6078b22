package storage

import (
	"strings"
)

// labelSuffix is appended to some folder labels by the portal markup
const labelSuffix = "page"

// Sanitize turns a scraped label into a string safe to use as a single path
// component. It removes the characters \ / : * ? " < > | and ASCII control
// characters, strips a trailing case-insensitive "page" and trims whitespace.
// Names made only of dots sanitize to "".
// Sanitize never fails and Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		switch r {
		case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, raw)

	// Stripping can expose another suffix ("Notes Page Page"), so repeat
	// until nothing changes.
	for {
		cleaned = strings.TrimSpace(cleaned)
		if len(cleaned) < len(labelSuffix) {
			break
		}
		tail := cleaned[len(cleaned)-len(labelSuffix):]
		if !strings.EqualFold(tail, labelSuffix) {
			break
		}
		cleaned = cleaned[:len(cleaned)-len(labelSuffix)]
	}

	// "." and ".." would escape the directory they are joined to.
	if strings.Trim(cleaned, ".") == "" {
		return ""
	}
	return cleaned
}
