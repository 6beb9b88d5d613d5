package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"apod/internal/app"
	"apod/internal/config"

	"github.com/spf13/cobra"
)

var (
	configFile string
	apiKey     string
	apiKeyFile string
	scriptPath string
	imagesDir  string
	linksDir   string
	date       string
	logLevel   string
	interval   string
	limit      int
)

var rootCmd = &cobra.Command{
	Use:   "apod",
	Short: "Set NASA's Astronomy Picture of the Day as the desktop wallpaper",
	Long: `Fetches today's Astronomy Picture of the Day listing, downloads the
image unless it is already saved locally, writes its description next to it
and runs the wallpaper script with a stable symlink to the image.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			_, err := a.RunOnce(ctx)
			return err
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the wallpaper current by re-running on an interval",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return a.Watch(ctx)
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously fetched days from the listing archive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return a.History(ctx, limit)
		})
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "config.json", "Path to the JSON config file (optional)")
	flags.StringVar(&apiKey, "api-key", "", "NASA API key (overrides the key file)")
	flags.StringVar(&apiKeyFile, "api-key-file", "", "File containing the NASA API key")
	flags.StringVar(&scriptPath, "script", "", "Wallpaper setting script")
	flags.StringVar(&imagesDir, "images-dir", "", "Directory for downloaded images")
	flags.StringVar(&linksDir, "links-dir", "", "Directory for wallpaper symlinks")
	flags.StringVar(&date, "date", "", "Fetch the listing of a past day (YYYY-MM-DD)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	watchCmd.Flags().StringVar(&interval, "interval", "", "Time between runs, e.g. 6h")
	historyCmd.Flags().IntVar(&limit, "limit", 0, "Number of days to list")

	rootCmd.AddCommand(watchCmd, historyCmd)
}

// loadConfig reads the config and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	overrides := map[string]*string{
		"api-key":      &cfg.API.Key,
		"api-key-file": &cfg.API.KeyFile,
		"script":       &cfg.Paths.Script,
		"images-dir":   &cfg.Paths.ImagesDir,
		"links-dir":    &cfg.Paths.LinksDir,
		"date":         &cfg.API.Date,
		"log-level":    &cfg.Logger.Level,
		"interval":     &cfg.Watch.Interval,
	}
	for name, target := range overrides {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*target = f.Value.String()
		}
	}
	if cmd.Flags().Changed("limit") {
		cfg.History.Limit = limit
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
