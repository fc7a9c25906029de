package cmd

import (
	"errors"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"vkrss/config"
	"vkrss/db"
	"vkrss/feed"
	"vkrss/rss"
	"vkrss/vk"
)

// fetchCmd fetches the newsfeed once and prints the RSS document, for
// debugging the transformation without running the server.
func fetchCmd() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch the newsfeed once and print RSS to stdout",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:    "token",
				Aliases: []string{"t"},
				Usage:   "VK access token",
				EnvVars: []string{"VKRSS_TOKEN"},
			},
		),
		Action: func(ctx *cli.Context) error {
			// Keep stdout clean for the RSS document
			log.SetOutput(os.Stderr)

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			token := ctx.String("token")
			if token == "" {
				return errors.New("please provide an access token")
			}

			raw, err := fetchOnce(ctx, cfg, token)
			if err != nil {
				return err
			}

			timeline, err := vk.ParseTimeline(raw)
			if err != nil {
				return err
			}

			newsfeed, err := feed.Assemble(timeline)
			if err != nil {
				return err
			}

			_, err = os.Stdout.Write(rss.Serialize(newsfeed, cfg.Server.Debug))
			return err
		},
	}
}

func fetchOnce(ctx *cli.Context, cfg *config.Config, token string) ([]byte, error) {
	if cfg.Capture.Mode == config.CaptureReplay {
		captures, err := db.NewStore(cfg.Capture.Database)
		if err != nil {
			return nil, err
		}
		defer captures.Close()

		return captures.Load(ctx.Context, db.AccountKey(token))
	}

	client := vk.NewClient(time.Duration(cfg.Upstream.Timeout) * time.Second)

	raw, err := client.Newsfeed(ctx.Context, token)
	if err != nil {
		return nil, err
	}

	if cfg.Capture.Mode == config.CaptureRecord {
		if err := db.Migrate(cfg.Capture.Database); err != nil {
			return nil, err
		}

		captures, err := db.NewStore(cfg.Capture.Database)
		if err != nil {
			return nil, err
		}
		defer captures.Close()

		if err := captures.Save(ctx.Context, db.AccountKey(token), raw); err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Warn("Failed to record captured response")
		}
	}

	return raw, nil
}
