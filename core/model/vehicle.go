package model

// VehicleState is the availability of a vehicle.
type VehicleState int

const (
	// StateAvailable means the vehicle can be matched to a request.
	StateAvailable VehicleState = iota
	// StateOnTrip means the vehicle is serving a request.
	StateOnTrip
)

// String returns a human-readable representation of the state.
func (s VehicleState) String() string {
	switch s {
	case StateAvailable:
		return "available"
	case StateOnTrip:
		return "on-trip"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state using its string form.
func (s VehicleState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Vehicle is a registered vehicle and its driver.
//
// Location and State are the only fields that change after registration and
// they are only written by the dispatcher.
type Vehicle struct {
	ID       int          `json:"id"`
	Driver   string       `json:"driver"`
	Location Location     `json:"location"`
	State    VehicleState `json:"state"`
}

// Available reports whether the vehicle can take a new request.
func (v Vehicle) Available() bool {
	return v.State == StateAvailable
}

// UnmarshalText decodes a state produced by MarshalText.
func (s *VehicleState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "available":
		*s = StateAvailable
	case "on-trip":
		*s = StateOnTrip
	default:
		return &UnknownStatusError{Value: string(b)}
	}
	return nil
}
