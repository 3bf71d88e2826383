package id

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a ULID string. ULIDs sort by creation time, so notification ids
// double as a coarse creation order in listings and logs.
func New() string {
	return ulid.Make().String()
}

// Time extracts the creation timestamp encoded in a ULID.
func Time(s string) (time.Time, error) {
	u, err := ulid.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
