package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/ridedispatch/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and dispatch ride requests received over MQTT",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log, err := newLogger(cmd, cfg, opts, false)
			if err != nil {
				return err
			}
			svc, err := app.New(cfg, app.Options{Logger: log})
			if err != nil {
				return err
			}
			defer func() {
				if err := svc.Close(); err != nil {
					log.Errorf("service close: %v", err)
				}
			}()
			return svc.Run(cmd.Context())
		},
	}
}
