package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicateKey signals a unique-constraint violation. Services translate
// it into a conflict for the caller; the constraint itself is what makes
// check-then-insert races safe.
var ErrDuplicateKey = errors.New("duplicate key")

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}
