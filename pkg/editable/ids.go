package editable

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDFunc produces synthetic element ids.
type IDFunc func() string

// UUIDs generates random UUIDv4 ids.
func UUIDs() IDFunc {
	return uuid.NewString
}

// Sequential generates ids of the form prefix1, prefix2, ... It is scoped to
// the returned function, which makes it suitable for a single session.
func Sequential(prefix string) IDFunc {
	var counter atomic.Uint64
	return func() string {
		return prefix + strconv.FormatUint(counter.Add(1), 10)
	}
}
