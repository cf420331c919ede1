package vehicles

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kilianp07/ridedispatch/core/model"
	"github.com/kilianp07/ridedispatch/core/vehiclestatus"
)

// NewStatusHandler returns an HTTP handler exposing vehicle status data via
// GET /api/vehicles/status. Optional filters: state and min_trips.
func NewStatusHandler(store vehiclestatus.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var f vehiclestatus.Filter
		if s := r.URL.Query().Get("state"); s != "" {
			var st model.VehicleState
			if err := st.UnmarshalText([]byte(s)); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f.State = &st
		}
		if s := r.URL.Query().Get("min_trips"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				http.Error(w, "invalid min_trips", http.StatusBadRequest)
				return
			}
			f.MinTrips = n
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(store.List(f)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
