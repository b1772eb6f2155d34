package parser

import (
	"os"
	"time"
)

// Activity classifies how recently a session file was written. The reader
// itself never blocks awaiting new data; callers poll this predicate.
type Activity int

// Activity levels, ordered from cold to hot.
const (
	Inactive Activity = iota
	RecentlyActive
	PossiblyActive
)

const (
	recentWindow = 60 * time.Second
	activeWindow = 5 * time.Second
)

func (a Activity) String() string {
	switch a {
	case PossiblyActive:
		return "possibly_active"
	case RecentlyActive:
		return "recently_active"
	default:
		return "inactive"
	}
}

// ClassifyActivity maps a file mtime to an activity level relative to now.
func ClassifyActivity(mtime, now time.Time) Activity {
	age := now.Sub(mtime)
	switch {
	case age < activeWindow:
		return PossiblyActive
	case age < recentWindow:
		return RecentlyActive
	default:
		return Inactive
	}
}

// FileActivity stats path and classifies its liveness.
func FileActivity(path string) (Activity, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Inactive, err
	}
	return ClassifyActivity(info.ModTime(), time.Now()), nil
}
