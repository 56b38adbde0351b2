package main

import (
	"os"
	"time"

	"github.com/codingconcepts/env"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/golden-vcr/server-common/entry"
	"github.com/golden-vcr/server-common/rmq"
	"github.com/golden-vcr/watches/internal/aggregator"
	"github.com/golden-vcr/watches/internal/history"
	"github.com/golden-vcr/watches/internal/metrics"
	"github.com/golden-vcr/watches/internal/tautulli"
	"github.com/golden-vcr/watches/internal/webhook"
)

type Config struct {
	BindAddr   string `env:"BIND_ADDR"`
	ListenPort uint16 `env:"LISTEN_PORT" default:"5010"`

	TautulliURL            string `env:"TAUTULLI_URL" required:"true"`
	TautulliApiKey         string `env:"TAUTULLI_API_KEY" required:"true"`
	TautulliTimeoutSeconds int    `env:"TAUTULLI_TIMEOUT_SECONDS" default:"30"`

	RmqHost     string `env:"RMQ_HOST" required:"true"`
	RmqPort     int    `env:"RMQ_PORT" required:"true"`
	RmqVhost    string `env:"RMQ_VHOST" required:"true"`
	RmqUser     string `env:"RMQ_USER" required:"true"`
	RmqPassword string `env:"RMQ_PASSWORD" required:"true"`
}

func main() {
	app, ctx := entry.NewApplication("watches")
	defer app.Stop()

	// Parse config from environment variables
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		app.Fail("Failed to load .env file", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		app.Fail("Failed to load config", err)
	}

	// Initialize a Tautulli client, which serves as our source of raw watch history,
	// and wrap it in a service that reduces that history to the latest watch per
	// viewer
	tautulliClient := tautulli.NewClient(config.TautulliURL, config.TautulliApiKey, time.Duration(config.TautulliTimeoutSeconds)*time.Second)
	service := aggregator.NewService(tautulliClient)

	// Initialize an AMQP client
	amqpConn, err := amqp.Dial(rmq.FormatConnectionString(config.RmqHost, config.RmqPort, config.RmqVhost, config.RmqUser, config.RmqPassword))
	if err != nil {
		app.Fail("Failed to connect to AMQP server", err)
	}
	defer amqpConn.Close()

	// Prepare a producer that we can use to send messages to the playback-events
	// queue, whenever Tautulli notifies us of a playback
	playbackEventsProducer, err := rmq.NewProducer(amqpConn, "playback-events")
	if err != nil {
		app.Fail("Failed to initialize AMQP producer for playback-events", err)
	}

	// Start setting up our HTTP handlers, using gorilla/mux for routing
	r := mux.NewRouter()
	m := metrics.New()
	m.RegisterRoutes(r)

	// Anyone can query the latest watches of a movie or show
	{
		historyServer := history.NewServer(service, m)
		historyServer.RegisterRoutes(r)
	}

	// Tautulli's webhook notification agent calls us when anything is played
	{
		webhookServer := webhook.NewServer(playbackEventsProducer, m)
		webhookServer.RegisterRoutes(r)
	}

	// Handle incoming HTTP connections until our top-level context is canceled, at
	// which point shut down cleanly
	entry.RunServer(ctx, app.Log(), r, config.BindAddr, config.ListenPort)
}
