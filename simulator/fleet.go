// Package simulator generates random fleets and ride requests on a square
// grid and drives them through a dispatcher.
package simulator

import (
	"fmt"
	"math/rand"

	"github.com/kilianp07/ridedispatch/core/model"
)

// GenerateFleet creates n available vehicles with ids 1..n and drivers
// driver-0001..driver-NNNN, placed uniformly on [0, grid]x[0, grid].
func GenerateFleet(rng *rand.Rand, n, grid int) []model.Vehicle {
	if n <= 0 {
		return nil
	}
	vs := make([]model.Vehicle, n)
	for i := range vs {
		vs[i] = model.Vehicle{
			ID:       i + 1,
			Driver:   fmt.Sprintf("driver-%04d", i+1),
			Location: randomLocation(rng, grid),
			State:    model.StateAvailable,
		}
	}
	return vs
}

// GenerateRequests creates m ride requests with ids 1..m whose pickup and
// destination are uniform on the grid.
func GenerateRequests(rng *rand.Rand, m, grid int) []model.RideRequest {
	if m <= 0 {
		return nil
	}
	rs := make([]model.RideRequest, m)
	for i := range rs {
		rs[i] = model.RideRequest{
			ID:          i + 1,
			Pickup:      randomLocation(rng, grid),
			Destination: randomLocation(rng, grid),
		}
	}
	return rs
}

func randomLocation(rng *rand.Rand, grid int) model.Location {
	return model.Loc(rng.Intn(grid+1), rng.Intn(grid+1))
}
