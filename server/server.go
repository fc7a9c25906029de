package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"vkrss/config"
	"vkrss/db"
	"vkrss/feed"
	"vkrss/rss"
	"vkrss/vk"
)

var (
	feedsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vkrss_feeds_generated_total",
		Help: "The total number of successfully generated RSS feeds",
	})

	feedErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vkrss_feed_errors_total",
		Help: "The total number of requests that failed to produce a feed",
	})
)

type ServerConfig struct {

	// The hostname to use for the server
	Hostname string

	// Return human-readable RSS instead of the compacted form
	Debug bool

	// The upstream API client
	Client *vk.Client

	// Capture store for offline record/replay, nil when capture is off
	Captures *db.Store

	// One of the config.Capture* modes
	CaptureMode string
}

// Returns a fiber.App instance to be used as an HTTP server for the
// newsfeed-to-RSS endpoint
func Server(cfg *ServerConfig) *fiber.App {

	app := fiber.New()

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"latency": time.Since(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	app.Get("/vk", vkHandler(cfg))

	return app
}

func vkHandler(cfg *ServerConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, token, ok := basicAuth(c)
		if !ok || token == "" {
			return unauthorized(c, "Please enter VK access_token in password box.")
		}

		raw, err := fetchTimeline(c, cfg, token)
		if err != nil {
			if vk.IsAuthError(err) {
				return unauthorized(c, err.Error())
			}

			log.WithFields(log.Fields{
				"error": err,
			}).Error("Failed to fetch timeline")
			feedErrors.Inc()
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to fetch timeline")
		}

		timeline, err := vk.ParseTimeline(raw)
		if err != nil {
			log.WithFields(log.Fields{
				"error":    err,
				"response": string(raw),
			}).Error("Failed to process news feed")
			feedErrors.Inc()
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to process news feed")
		}

		newsfeed, err := feed.Assemble(timeline)
		if err != nil {
			log.WithFields(log.Fields{
				"error":    err,
				"response": string(raw),
			}).Error("Failed to assemble feed")
			feedErrors.Inc()
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to assemble feed")
		}

		feedsGenerated.Inc()

		c.Set(fiber.HeaderContentType, "application/rss+xml")
		return c.Send(rss.Serialize(newsfeed, cfg.Debug))
	}
}

func fetchTimeline(c *fiber.Ctx, cfg *ServerConfig, token string) (json.RawMessage, error) {
	if cfg.CaptureMode == config.CaptureReplay {
		return cfg.Captures.Load(c.UserContext(), db.AccountKey(token))
	}

	raw, err := cfg.Client.Newsfeed(c.UserContext(), token)
	if err != nil {
		return nil, err
	}

	if cfg.CaptureMode == config.CaptureRecord && cfg.Captures != nil {
		if err := cfg.Captures.Save(c.UserContext(), db.AccountKey(token), raw); err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Warn("Failed to record captured response")
		}
	}

	return raw, nil
}

// basicAuth extracts HTTP Basic Access Authentication credentials.
func basicAuth(c *fiber.Ctx) (string, string, bool) {
	const prefix = "Basic "

	authorization := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authorization, prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(authorization[len(prefix):])
	if err != nil {
		return "", "", false
	}

	user, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", false
	}

	return user, password, true
}

// unauthorized requests authorization from the client, carrying the reason
// in the challenge realm.
func unauthorized(c *fiber.Ctx, message string) error {
	c.Set(fiber.HeaderWWWAuthenticate,
		fmt.Sprintf(`Basic realm="%s"`, strings.ReplaceAll(message, `"`, "'")))
	return c.SendStatus(fiber.StatusUnauthorized)
}
