package validator

import (
	"github.com/google/uuid"
)

// isUUID checks the canonical hyphenated form. Length and hyphen positions
// are checked before parsing.
func isUUID(value string) bool {
	if len(value) != 36 {
		return false
	}
	if value[8] != '-' || value[13] != '-' || value[18] != '-' || value[23] != '-' {
		return false
	}
	_, err := uuid.Parse(value)
	return err == nil
}

// isTrimmedUUID checks the 32 hex digit form without hyphens.
func isTrimmedUUID(value string) bool {
	if len(value) != 32 {
		return false
	}
	for i := range len(value) {
		c := value[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	_, err := uuid.Parse(value)
	return err == nil
}
