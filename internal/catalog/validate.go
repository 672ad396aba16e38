package catalog

import (
	adminerrors "github.com/quillstore/admind/internal/errors"
)

const maxDatabaseNameLength = 238

// ValidateDatabaseName enforces the database naming rules: a lowercase
// letter first, then lowercase letters, digits, or _$()+/- characters.
func ValidateDatabaseName(name string) error {
	if name == "" {
		return adminerrors.Validation("database name is required")
	}
	if len(name) > maxDatabaseNameLength {
		return adminerrors.Validation("database name exceeds %d characters", maxDatabaseNameLength)
	}
	if name[0] < 'a' || name[0] > 'z' {
		return adminerrors.Validation("database name must start with a lowercase letter: %q", name)
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '$' || c == '(' || c == ')' || c == '+' || c == '/' || c == '-':
		default:
			return adminerrors.Validation("database name contains invalid character %q", string(c))
		}
	}
	return nil
}
