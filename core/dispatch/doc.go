// Package dispatch matches ride requests to the vehicles of a registry.
//
// Key components:
//   - Dispatcher: owns the vehicle registry, matches requests and completes trips.
//   - VehicleFilter: selects the vehicles eligible for a request.
//   - Matcher: picks one vehicle among the eligible ones.
//
// Default implementations include:
//   - AvailableFilter: keeps vehicles in the available state.
//   - RadiusFilter: keeps vehicles within a maximum pickup distance.
//   - NearestMatcher: linear scan for the smallest Euclidean pickup
//     distance, ties resolved in favour of the lowest vehicle id.
//
// Submission flow:
//  1. Filter the registry
//  2. Match the nearest vehicle, or report that none is available
//  3. Mark the vehicle on trip (pickup)
//  4. Move it to the destination and mark it available (completion)
//  5. Publish events, record metrics, append to the trip log and notify
//
// Completion is synchronous: SubmitRequest returns once the trip is done.
// When deferred matching is enabled, unmatched requests wait in a FIFO that
// is drained whenever a vehicle is registered or completes a trip.
//
// Usage example:
//
//	d, err := dispatch.NewDispatcher(
//	        dispatch.AvailableFilter{},
//	        dispatch.NearestMatcher{},
//	        dispatch.Config{},
//	        logger.NopLogger{},
//	)
//	if err != nil {
//	        log.Fatalf("failed to create dispatcher: %v", err)
//	}
//	d.RegisterVehicle(1, "Alice", model.Loc(0, 0))
//	out, err := d.SubmitRequest(ctx, model.RideRequest{ID: 1, Pickup: model.Loc(1, 1)})
package dispatch
