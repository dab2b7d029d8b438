// garment - T-shirt designer pipeline
// Split a garment model into sleeves, front and back, apply colors,
// patterns and logo decals, and export the result as GLB. Designs, ratings
// and the cart are synced with the storefront backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/garment/internal/api"
	"github.com/taigrr/garment/internal/assets"
	"github.com/taigrr/garment/internal/config"
	"github.com/taigrr/garment/internal/logger"
	"github.com/taigrr/garment/internal/session"
)

var version = "dev"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	overrides  config.Overrides

	cfg      *config.Config
	log      *zap.Logger
	fetcher  *assets.Fetcher
	sess     *session.Session
	client   *api.Client
	previews assets.PreviewSlot
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	if err := fang.Execute(ctx, root, fang.WithVersion(version)); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "garment",
		Short: "T-shirt designer pipeline",
		Long: `garment - T-shirt designer pipeline

Split a garment model into right sleeve, left sleeve, front and back,
color it, tile a pattern or place a logo decal, and export a GLB.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.previews.Release()
			logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path to config file")
	pf.BoolVar(&a.overrides.Debug, "debug", false, "Enable debug logging")
	pf.StringVar(&a.overrides.LogFile, "log-file", "", "Also write logs to this file (rotated)")
	pf.StringVar(&a.overrides.BackendURL, "backend", "", "Backend API base URL")
	pf.StringVar(&a.overrides.ModelURL, "model", "", "Garment model (GLB path or URL)")
	pf.StringVar(&a.overrides.CacheDir, "cache-dir", "", "Asset cache directory")

	root.AddCommand(
		newInfoCmd(a),
		newSplitCmd(a),
		newBakeCmd(a),
		newDesignCmd(a),
		newMarketplaceCmd(a),
		newRatingsCmd(a),
		newRateCmd(a),
		newCartCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath, a.overrides)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.cfg = cfg
	a.log = logger.Log

	a.fetcher = assets.NewFetcher(cfg.Assets.CacheDir,
		assets.WithLogger(logger.Named("assets")))

	a.sess, err = session.Open(cfg.Backend.SessionFile, logger.Named("session"))
	if err != nil {
		return err
	}
	a.client = api.New(cfg.Backend.URL,
		api.WithTimeout(cfg.Backend.Timeout),
		api.WithTokens(a.sess),
		api.WithPublicBucketURL(cfg.Backend.PublicBucketURL),
		api.WithLogger(logger.Named("api")))
	a.log.Debug("configured",
		zap.String("backend", cfg.Backend.URL),
		zap.String("model", cfg.Assets.ModelURL),
		zap.String("cache", cfg.Assets.CacheDir))
	return nil
}

// fetchContext bounds asset downloads by the configured timeout.
func (a *app) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Assets.FetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.Assets.FetchTimeout)
}

func newConfigCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration, or write it with --write",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out != "" {
				if err := a.cfg.SaveTo(out); err != nil {
					return fmt.Errorf("save config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
				return nil
			}
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&out, "write", "", "Write the configuration to this path")
	return cmd
}
