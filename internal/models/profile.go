package models

import "math"

// ProfileSegment is one time-of-day segment of a pump profile schedule.
type ProfileSegment struct {
	TimeAsSeconds int     `json:"timeAsSeconds"` // seconds past midnight
	Value         float64 `json:"value"`
}

// ProfileSchedule is a full-day schedule, sorted by segment start time.
type ProfileSchedule []ProfileSegment

// Profile is the pump's active personal profile: per-segment basal
// rates, insulin sensitivity, carb ratios and target BG bounds. The
// shape is fixed and known, so profiles are compared field by field
// rather than by generic deep-diff.
type Profile struct {
	Name        string          `json:"name"`
	Basal       ProfileSchedule `json:"basal"`       // units/hr
	Sensitivity ProfileSchedule `json:"sens"`        // mg/dL per unit
	CarbRatio   ProfileSchedule `json:"carbratio"`   // g per unit
	TargetLow   ProfileSchedule `json:"target_low"`  // mg/dL
	TargetHigh  ProfileSchedule `json:"target_high"` // mg/dL
}

// segment values arrive from two services that render numbers
// differently (e.g. "0.5" vs "0.50"), so comparison needs a tolerance
const profileValueTolerance = 1e-6

func (s ProfileSchedule) equal(o ProfileSchedule) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i].TimeAsSeconds != o[i].TimeAsSeconds {
			return false
		}
		if math.Abs(s[i].Value-o[i].Value) > profileValueTolerance {
			return false
		}
	}
	return true
}

// Equal reports whether two profiles carry the same settings.
func (p *Profile) Equal(o *Profile) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.Name == o.Name &&
		p.Basal.equal(o.Basal) &&
		p.Sensitivity.equal(o.Sensitivity) &&
		p.CarbRatio.equal(o.CarbRatio) &&
		p.TargetLow.equal(o.TargetLow) &&
		p.TargetHigh.equal(o.TargetHigh)
}
