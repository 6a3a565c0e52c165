package store

import "time"

// Search is one recorded search.
type Search struct {
	ID         int64
	SN         string
	PN         string
	Results    int
	SearchedAt time.Time
}
