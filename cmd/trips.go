package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridedispatch/core/model"
	"github.com/kilianp07/ridedispatch/core/triplog"
	"github.com/kilianp07/ridedispatch/pkg/export"
)

var errTripLogNotPersistent = errors.New("trip log is not persistent")

func newTripsCmd(opts *rootOptions) *cobra.Command {
	var (
		format    string
		vehicleID int
		status    string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "trips",
		Short: "Export the configured trip log as json or csv",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if !cfg.TripLog.Persistent() {
				return fmt.Errorf("%w: backend %q keeps no trips between runs, use jsonl or sqlite", errTripLogNotPersistent, cfg.TripLog.Backend)
			}
			store, err := triplog.Open(cfg.TripLog)
			if err != nil {
				return fmt.Errorf("trip log: %w", err)
			}
			defer func() { _ = store.Close() }()

			q := triplog.Query{Limit: limit}
			if cmd.Flags().Changed("vehicle") {
				q.VehicleID = &vehicleID
			}
			if status != "" {
				st, ok := model.ParseOutcomeStatus(status)
				if !ok {
					return fmt.Errorf("unknown status %q", status)
				}
				q.Status = &st
			}
			recs, err := store.Query(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("query trip log: %w", err)
			}
			return export.Write(cmd.OutOrStdout(), format, recs)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or csv")
	cmd.Flags().IntVar(&vehicleID, "vehicle", 0, "only trips served by this vehicle")
	cmd.Flags().StringVar(&status, "status", "", "only outcomes with this status")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of records, 0 for all")
	return cmd
}
