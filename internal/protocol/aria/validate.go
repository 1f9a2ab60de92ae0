package aria

import (
	"strings"
	"time"
)

// Validation flags recorded on the raw-upload row. These are wire-level
// anomaly names, stable because operators grep for them.
const (
	FlagBadMAC                = "bad_mac"
	FlagWeightOutOfRange      = "weight_out_of_range"
	FlagTimestampSuspect      = "timestamp_suspect"
	FlagTruncatedMeasurements = "truncated_measurements"
	FlagCRCMismatch           = "crc_mismatch"
	FlagBatteryClamped        = "battery_clamped"
)

// Weight sanity bounds, grams. The scale's hardware range is 0–150 kg; the
// wide envelope only rejects obviously corrupt records.
const (
	MinWeightG = 1000
	MaxWeightG = 400000
)

// Timestamps before the product existed are clock resets, not history.
var earliestPlausible = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

// MaxClockSkew is how far into the future a scale timestamp may run before
// it is flagged. The scale clock drifts and is set over unauthenticated NTP.
const MaxClockSkew = 24 * time.Hour

// Report is the outcome of validating a decoded upload.
type Report struct {
	// Valid holds the measurements that survived range checks, in frame
	// order.
	Valid []Measurement

	// Battery is the battery percentage after clamping to [0, 100].
	Battery uint8

	flags []string
}

// Flags returns the anomaly flags in detection order.
func (r *Report) Flags() []string { return r.flags }

// Has reports whether the given flag was raised.
func (r *Report) Has(flag string) bool {
	for _, f := range r.flags {
		if f == flag {
			return true
		}
	}
	return false
}

// FlagString joins the flags for storage on the raw-upload row. Empty when
// the frame was clean.
func (r *Report) FlagString() string {
	return strings.Join(r.flags, ",")
}

func (r *Report) add(flag string) {
	if !r.Has(flag) {
		r.flags = append(r.flags, flag)
	}
}

// Validate applies range and structural checks to a decoded frame.
//
// Validation never rejects the frame outright: measurements that fail a
// range check are dropped, suspect ones are kept and flagged, and the
// caller decides what to do when nothing survives. The one exception is a
// zero or broadcast MAC, which makes the frame unattributable; Valid is
// left empty in that case.
func Validate(f *UploadFrame, now time.Time) *Report {
	r := &Report{Battery: f.Battery}

	if f.CRCMismatch {
		r.add(FlagCRCMismatch)
	}
	if f.Truncated || f.Surplus || int(f.DeclaredCount) != len(f.Measurements) {
		r.add(FlagTruncatedMeasurements)
	}
	if f.Battery > 100 {
		r.Battery = 100
		r.add(FlagBatteryClamped)
	}

	if f.MAC.IsZero() || f.MAC.IsBroadcast() {
		r.add(FlagBadMAC)
		return r
	}

	latest := uint32(now.Add(MaxClockSkew).Unix())
	earliest := uint32(earliestPlausible.Unix())

	r.Valid = make([]Measurement, 0, len(f.Measurements))
	for _, m := range f.Measurements {
		if m.WeightG < MinWeightG || m.WeightG > MaxWeightG {
			r.add(FlagWeightOutOfRange)
			continue
		}
		if m.Timestamp < earliest || m.Timestamp > latest {
			r.add(FlagTimestampSuspect)
		}
		r.Valid = append(r.Valid, m)
	}
	return r
}
