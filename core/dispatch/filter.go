package dispatch

import "github.com/kilianp07/ridedispatch/core/model"

// AvailableFilter keeps the vehicles that are not on a trip.
type AvailableFilter struct{}

func (AvailableFilter) Filter(vehicles []model.Vehicle, _ model.RideRequest) []model.Vehicle {
	var res []model.Vehicle
	for _, v := range vehicles {
		if v.Available() {
			res = append(res, v)
		}
	}
	return res
}

// RadiusFilter keeps the vehicles at most MaxDistance away from the pickup.
// A non-positive MaxDistance keeps everything.
type RadiusFilter struct {
	MaxDistance float64
}

func (f RadiusFilter) Filter(vehicles []model.Vehicle, req model.RideRequest) []model.Vehicle {
	if f.MaxDistance <= 0 {
		return vehicles
	}
	var res []model.Vehicle
	for _, v := range vehicles {
		if v.Location.DistanceTo(req.Pickup) <= f.MaxDistance {
			res = append(res, v)
		}
	}
	return res
}

// ChainFilter applies filters in order.
type ChainFilter []VehicleFilter

func (c ChainFilter) Filter(vehicles []model.Vehicle, req model.RideRequest) []model.Vehicle {
	for _, f := range c {
		vehicles = f.Filter(vehicles, req)
		if len(vehicles) == 0 {
			return nil
		}
	}
	return vehicles
}

// FilterFromConfig returns the filter matching the dispatch configuration.
func FilterFromConfig(cfg Config) VehicleFilter {
	if cfg.MaxPickupDistance > 0 {
		return ChainFilter{AvailableFilter{}, RadiusFilter{MaxDistance: cfg.MaxPickupDistance}}
	}
	return AvailableFilter{}
}
