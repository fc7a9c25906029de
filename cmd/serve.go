package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"vkrss/config"
	"vkrss/db"
	"vkrss/server"
	"vkrss/vk"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the VK newsfeed as RSS",
		Description: `Starts the HTTP server.

Each GET /vk request authenticated with a VK access token in the Basic
Auth password fetches the account's newsfeed from the VK API, transforms
it and returns it as application/rss+xml.`,
		Flags: commonFlags(),
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			client := vk.NewClient(time.Duration(cfg.Upstream.Timeout) * time.Second)

			var captures *db.Store
			if cfg.Capture.Mode != config.CaptureOff {
				if err := db.Migrate(cfg.Capture.Database); err != nil {
					return fmt.Errorf("failed to migrate capture database: %w", err)
				}
				captures, err = db.NewStore(cfg.Capture.Database)
				if err != nil {
					return err
				}
				defer captures.Close()
			}

			app := server.Server(&server.ServerConfig{
				Hostname:    cfg.Server.Hostname,
				Debug:       cfg.Server.Debug,
				Client:      client,
				Captures:    captures,
				CaptureMode: cfg.Capture.Mode,
			})

			// Graceful shutdown
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt)

			go func() {
				<-c
				log.Info("Gracefully shutting down...")
				if err := app.ShutdownWithTimeout(60 * time.Second); err != nil {
					log.Errorf("Failed to shut down server: %v", err)
				}
			}()

			log.WithFields(log.Fields{
				"port":    cfg.Server.Port,
				"capture": cfg.Capture.Mode,
			}).Info("Starting server...")

			return app.Listen(fmt.Sprintf(":%d", cfg.Server.Port))
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the TOML configuration file",
			EnvVars: []string{"VKRSS_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "hostname",
			Usage:   "The hostname the server is reachable on",
			EnvVars: []string{"VKRSS_HOSTNAME"},
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "The port to listen on",
			EnvVars: []string{"VKRSS_PORT"},
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Return human-readable RSS instead of the compacted form",
			EnvVars: []string{"VKRSS_DEBUG"},
		},
		&cli.IntFlag{
			Name:    "timeout",
			Usage:   "Upstream API request timeout in seconds",
			EnvVars: []string{"VKRSS_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "capture-mode",
			Usage:   "Capture mode: off, record or replay",
			EnvVars: []string{"VKRSS_CAPTURE_MODE"},
		},
		&cli.StringFlag{
			Name:    "capture-database",
			Usage:   "Path to the SQLite capture database",
			EnvVars: []string{"VKRSS_CAPTURE_DATABASE"},
		},
	}
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(ctx.String("config"))
	if err != nil {
		return nil, err
	}

	if ctx.IsSet("hostname") {
		cfg.Server.Hostname = ctx.String("hostname")
	}
	if ctx.IsSet("port") {
		cfg.Server.Port = ctx.Int("port")
	}
	if ctx.IsSet("debug") {
		cfg.Server.Debug = ctx.Bool("debug")
	}
	if ctx.IsSet("timeout") {
		cfg.Upstream.Timeout = ctx.Int("timeout")
	}
	if ctx.IsSet("capture-mode") {
		cfg.Capture.Mode = ctx.String("capture-mode")
	}
	if ctx.IsSet("capture-database") {
		cfg.Capture.Database = ctx.String("capture-database")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
