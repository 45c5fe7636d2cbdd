// Command tokenauthd runs the token authority HTTP service.
//
//	tokenauthd migrate --config configs/config.yaml
//	TOKENAUTH_JWT_SECRET=... tokenauthd serve --config configs/config.yaml --addr :8080
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KOMKZ/go-yogan-tokenauth/application"
	"github.com/spf13/cobra"
)

//go:generate swag init -g main.go -d .,../../api,../../auth,../../httpx -o ../../docs --instanceName swagger

// @title tokenauthd API
// @version 1.0
// @description JWT access/refresh token authority with revocation and bounded refresh rotation.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "tokenauthd",
		Short:         "JWT access/refresh token authority",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (yaml)")
	application.BindFlags(root.PersistentFlags())

	newApp := func(cmd *cobra.Command) (*application.App, error) {
		cfg, err := application.LoadConfig(configFile, cmd.Flags())
		if err != nil {
			return nil, err
		}
		return application.New(cfg)
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the HTTP API until SIGINT/SIGTERM",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				app, err := newApp(cmd)
				if err != nil {
					return err
				}
				return app.Run(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the user table",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				app, err := newApp(cmd)
				if err != nil {
					return err
				}
				return app.Migrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Run one session index cleanup pass",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				app, err := newApp(cmd)
				if err != nil {
					return err
				}
				n, err := app.Sweep(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d stale session entries\n", n)
				return nil
			},
		},
	)
	return root
}
