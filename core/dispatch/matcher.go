package dispatch

import (
	"math"

	"github.com/kilianp07/ridedispatch/core/model"
)

// NearestMatcher selects the available vehicle closest to the pickup using a
// linear scan over all candidates. Equidistant vehicles are resolved in
// favour of the lowest id, so the result does not depend on input order.
type NearestMatcher struct{}

func (NearestMatcher) Match(vehicles []model.Vehicle, pickup model.Location) (Candidate, bool) {
	best := Candidate{Distance: math.Inf(1)}
	found := false
	for _, v := range vehicles {
		if !v.Available() {
			continue
		}
		d := v.Location.DistanceTo(pickup)
		if d < best.Distance || (d == best.Distance && found && v.ID < best.VehicleID) {
			best = Candidate{VehicleID: v.ID, Distance: d}
			found = true
		}
	}
	if !found {
		return Candidate{}, false
	}
	return best, true
}
