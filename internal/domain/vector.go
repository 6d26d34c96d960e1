package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Vector is an embedding stored as a JSON array in a TEXT column. An empty
// (nil or zero-length) vector marks a row whose embedding failed; retrieval
// treats such rows as text-only candidates.
type Vector []float64

// Value implements driver.Valuer. Empty vectors are stored as NULL so the
// "embedding failed" state survives round-trips unambiguously.
func (v Vector) Value() (driver.Value, error) {
	if len(v) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]float64(v))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for TEXT/BLOB/NULL column values.
func (v *Vector) Scan(src any) error {
	if src == nil {
		*v = nil
		return nil
	}
	var b []byte
	switch t := src.(type) {
	case []byte:
		b = t
	case string:
		b = []byte(t)
	default:
		return fmt.Errorf("vector: unsupported column type %T", src)
	}
	if len(b) == 0 {
		*v = nil
		return nil
	}
	var out []float64
	if err := json.Unmarshal(b, &out); err != nil {
		return errors.New("vector: malformed embedding payload")
	}
	*v = out
	return nil
}

// IsZero reports whether the vector is absent (embedding failed or not yet
// computed).
func (v Vector) IsZero() bool { return len(v) == 0 }
