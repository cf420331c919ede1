package trips

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/ridedispatch/core/model"
	"github.com/kilianp07/ridedispatch/core/triplog"
)

// NewHandler returns an HTTP handler exposing the trip log via GET /api/trips.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
// Supported query parameters: vehicle_id, status, start and end (RFC3339) and limit.
func NewHandler(store triplog.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []triplog.Record{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func parseQuery(r *http.Request) (triplog.Query, error) {
	var q triplog.Query
	v := r.URL.Query()
	if s := v.Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, fmt.Errorf("invalid start: %w", err)
		}
		q.Start = t
	}
	if s := v.Get("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, fmt.Errorf("invalid end: %w", err)
		}
		q.End = t
	}
	if s := v.Get("vehicle_id"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("invalid vehicle_id %q", s)
		}
		q.VehicleID = &id
	}
	if s := v.Get("status"); s != "" {
		st, ok := model.ParseOutcomeStatus(s)
		if !ok {
			return q, fmt.Errorf("invalid status %q", s)
		}
		q.Status = &st
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, fmt.Errorf("invalid limit %q", s)
		}
		q.Limit = n
	}
	return q, nil
}
