package internal

import (
	"sync"
	"time"
)

var (
	chileOnce sync.Once
	chileTZ   *time.Location
)

// ChileLocation returns the America/Santiago timezone used for every persisted
// timestamp. The deployment has always recorded naive Chilean wall-clock time,
// so reset-token expiries and audit timestamps must keep comparing in the same
// frame.
func ChileLocation() *time.Location {
	chileOnce.Do(func() {
		loc, err := time.LoadLocation("America/Santiago")
		if err != nil {
			loc = time.FixedZone("CLT", -4*60*60)
		}
		chileTZ = loc
	})
	return chileTZ
}

// NowChile returns the current time in the Chilean timezone.
func NowChile() time.Time {
	return time.Now().In(ChileLocation())
}
