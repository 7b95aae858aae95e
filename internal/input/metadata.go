package input

import (
	"time"
	_ "time/tzdata"
)

// #region defaults
const (
	DefaultLanguage = "it"
	ReferenceZone   = "Europe/Rome"
)

// referenceLocation is resolved once. Embedded tzdata makes the fallback
// practically unreachable.
var referenceLocation = func() *time.Location {
	loc, err := time.LoadLocation(ReferenceZone)
	if err != nil {
		return time.FixedZone(ReferenceZone, 60*60)
	}
	return loc
}()

// #endregion defaults

// #region metadata

// Metadata is the request-scoped envelope around an incoming message.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Language  string    `json:"language"`
	HourOfDay int       `json:"hour_of_day"`
	Timezone  string    `json:"timezone"`
}

// Enrich fills defaults and derives the hour of day in the reference zone.
// It never fails.
func Enrich(meta Metadata, now time.Time) Metadata {
	out := meta
	if out.Timestamp.IsZero() {
		out.Timestamp = now
	}
	if out.Language == "" {
		out.Language = DefaultLanguage
	}
	out.HourOfDay = out.Timestamp.In(referenceLocation).Hour()
	out.Timezone = ReferenceZone
	return out
}

// #endregion metadata
