package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/ridedispatch/core/triplog"
)

// Header is the column layout written by WriteCSV.
var Header = []string{"timestamp", "request_id", "status", "trip_id", "vehicle_id", "driver", "pickup_x", "pickup_y", "destination_x", "destination_y", "distance", "latency_us"}

// WriteJSON writes the trip log records to w as a JSON array.
func WriteJSON(w io.Writer, recs []triplog.Record) error {
	if recs == nil {
		recs = []triplog.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

// WriteCSV writes the trip log records to w in CSV format. Unassigned
// requests leave the trip, vehicle and driver columns empty.
func WriteCSV(w io.Writer, recs []triplog.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range recs {
		o := r.Outcome
		vehicle := ""
		if o.Assigned() {
			vehicle = strconv.Itoa(o.VehicleID)
		}
		rec := []string{
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			strconv.Itoa(o.RequestID),
			o.Status.String(),
			o.TripID,
			vehicle,
			o.Driver,
			strconv.Itoa(o.Pickup.X),
			strconv.Itoa(o.Pickup.Y),
			strconv.Itoa(o.Destination.X),
			strconv.Itoa(o.Destination.Y),
			strconv.FormatFloat(o.Distance, 'f', -1, 64),
			strconv.FormatInt(r.LatencyMicros, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write dispatches to WriteJSON or WriteCSV by format name.
func Write(w io.Writer, format string, recs []triplog.Record) error {
	switch format {
	case "json":
		return WriteJSON(w, recs)
	case "csv":
		return WriteCSV(w, recs)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
