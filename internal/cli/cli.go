// Package cli implements the weather command: a one-shot dashboard in the terminal.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/kjstillabower/weather-dashboard/internal/location"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/service"
)

// Dashboard is the service surface the command drives.
type Dashboard interface {
	Search(ctx context.Context, loc string) (service.State, error)
	Locate(ctx context.Context, device location.DeviceLocator) (service.State, error)
}

// Options are the global flags handed to a Builder.
type Options struct {
	ConfigDir string
	Verbose   bool
}

// Builder constructs the dashboard once flags are parsed. The returned cleanup runs
// after the command finishes.
type Builder func(opts Options) (Dashboard, func(), error)

func New(build Builder) (*cobra.Command, error) {
	if build == nil {
		return nil, errors.New("cli: nil builder")
	}
	var (
		opts     Options
		lat, lon float64
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "weather [location]",
		Short: "Show current conditions, forecast and astronomy for a location",
		Long: "Without a location the device position (--lat/--lon) is used, then IP geolocation,\n" +
			"then the configured default location.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			hasCoords := cmd.Flags().Changed("lat")
			if len(args) > 0 && hasCoords {
				return errors.New("a location argument cannot be combined with --lat/--lon")
			}

			dash, cleanup, err := build(opts)
			if err != nil {
				return err
			}
			if cleanup != nil {
				defer cleanup()
			}

			var st service.State
			switch {
			case len(args) > 0:
				st, err = dash.Search(cmd.Context(), strings.Join(args, " "))
			case hasCoords:
				st, err = dash.Locate(cmd.Context(), location.ReportedPosition{Position: &location.Position{
					Coordinates: models.Coordinates{Latitude: lat, Longitude: lon},
					Timestamp:   time.Now(),
				}})
			default:
				st, err = dash.Locate(cmd.Context(), location.NoDevice{})
			}
			if err != nil {
				return describeError(st, err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			render(cmd, st)
			return nil
		},
	}

	cmd.SetOut(os.Stdout)
	cmd.Flags().Float64Var(&lat, "lat", 0, "device latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "device longitude")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the dashboard state as JSON")
	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", ".", "directory containing config/ and .env")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging to stderr")

	return cmd, nil
}

// describeError prefers the user-facing message over the raw cause.
func describeError(st service.State, err error) error {
	if msg := service.UserMessage(err); msg != "" {
		return errors.New(msg)
	}
	if st.Error != "" {
		return fmt.Errorf("%s (%w)", st.Error, err)
	}
	return err
}
