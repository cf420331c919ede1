package vehicles

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/ridedispatch/core/model"
)

// Registry is the part of the dispatcher the handler needs.
type Registry interface {
	Vehicles() []model.Vehicle
	Vehicle(id int) (model.Vehicle, bool)
	RegisterVehicle(id int, driver string, loc model.Location) []model.Outcome
}

// RegisterRequest is the body of POST /api/vehicles.
type RegisterRequest struct {
	ID     *int   `json:"id"`
	Driver string `json:"driver"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// RegisterResponse is returned after a registration. Served lists pending
// ride requests the new vehicle was assigned to.
type RegisterResponse struct {
	Vehicle model.Vehicle   `json:"vehicle"`
	Served  []model.Outcome `json:"served"`
}

// NewHandler returns an HTTP handler for /api/vehicles. GET lists the
// registry ordered by id and POST registers or replaces a vehicle.
func NewHandler(reg Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, reg.Vehicles())
		case http.MethodPost:
			var body RegisterRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
				return
			}
			if body.ID == nil {
				http.Error(w, "id is required", http.StatusBadRequest)
				return
			}
			if body.Driver == "" {
				http.Error(w, "driver is required", http.StatusBadRequest)
				return
			}
			loc := model.Loc(body.X, body.Y)
			served := reg.RegisterVehicle(*body.ID, body.Driver, loc)
			if served == nil {
				served = []model.Outcome{}
			}
			// Served trips have already moved the vehicle.
			v, ok := reg.Vehicle(*body.ID)
			if !ok {
				v = model.Vehicle{ID: *body.ID, Driver: body.Driver, Location: loc, State: model.StateAvailable}
			}
			writeJSON(w, http.StatusCreated, RegisterResponse{Vehicle: v, Served: served})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
