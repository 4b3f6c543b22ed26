package pipeline

import "github.com/oklog/ulid/v2"

// NewID returns a lexically sortable identifier for jobs and records.
func NewID() string {
	return ulid.Make().String()
}
