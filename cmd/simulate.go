package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridedispatch/app"
	"github.com/kilianp07/ridedispatch/simulator"
)

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	sim := simulator.Config{}
	var scenario string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Dispatch random ride requests over a generated fleet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log, err := newLogger(cmd, cfg, opts, true)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				sim.Seed = time.Now().UnixNano()
			}
			svc, err := app.New(cfg, app.Options{Logger: log, Offline: true})
			if err != nil {
				return err
			}
			defer func() {
				if err := svc.Close(); err != nil {
					log.Errorf("service close: %v", err)
				}
			}()
			if scenario != "" {
				return runScenario(cmd, svc, scenario)
			}
			rep, err := simulator.Run(cmd.Context(), svc.Dispatcher, sim)
			if err != nil {
				return err
			}
			return rep.Write(cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&sim.Vehicles, "vehicles", 10, "number of vehicles in the fleet")
	cmd.Flags().IntVar(&sim.Requests, "requests", 100, "number of ride requests")
	cmd.Flags().IntVar(&sim.Grid, "grid", 100, "side length of the square grid")
	cmd.Flags().StringVar(&scenario, "scenario", "", "YAML scenario file replacing the generated fleet and requests")
	cmd.Flags().Int64Var(&sim.Seed, "seed", 1, "random seed; a time based seed is used when unset")
	return cmd
}

func runScenario(cmd *cobra.Command, svc *app.Service, path string) error {
	sc, err := simulator.LoadScenario(path)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	rep, err := sc.Run(cmd.Context(), svc.Dispatcher)
	if err != nil {
		return err
	}
	if err := rep.Write(cmd.OutOrStdout()); err != nil {
		return err
	}
	return sc.Check(rep)
}
