package requests

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kilianp07/ridedispatch/core/model"
	coremqtt "github.com/kilianp07/ridedispatch/core/mqtt"
)

// Submitter is the part of the dispatcher the handler needs.
type Submitter interface {
	SubmitRequest(ctx context.Context, req model.RideRequest) (model.Outcome, error)
}

// NewHandler returns an HTTP handler for POST /api/requests. The body uses
// the same shape as ride requests received over MQTT and the response is
// the resulting outcome.
func NewHandler(s Submitter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var msg coremqtt.RequestMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
			return
		}
		req, err := msg.Request()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out, err := s.SubmitRequest(r.Context(), req)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				status = http.StatusServiceUnavailable
			}
			http.Error(w, err.Error(), status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
