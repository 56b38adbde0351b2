package main

import (
	"database/sql"
	"os"
	"time"

	"github.com/codingconcepts/env"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"github.com/golden-vcr/server-common/db"
	"github.com/golden-vcr/server-common/entry"
	"github.com/golden-vcr/server-common/rmq"
	"github.com/golden-vcr/watches/gen/queries"
	"github.com/golden-vcr/watches/internal/aggregator"
	"github.com/golden-vcr/watches/internal/consumer"
	"github.com/golden-vcr/watches/internal/metrics"
	"github.com/golden-vcr/watches/internal/state"
	"github.com/golden-vcr/watches/internal/tautulli"
)

type Config struct {
	BindAddr    string `env:"BIND_ADDR"`
	MetricsPort uint16 `env:"METRICS_PORT" default:"5011"`

	TautulliURL            string `env:"TAUTULLI_URL" required:"true"`
	TautulliApiKey         string `env:"TAUTULLI_API_KEY" required:"true"`
	TautulliTimeoutSeconds int    `env:"TAUTULLI_TIMEOUT_SECONDS" default:"30"`

	DatabaseHost     string `env:"PGHOST" required:"true"`
	DatabasePort     int    `env:"PGPORT" required:"true"`
	DatabaseName     string `env:"PGDATABASE" required:"true"`
	DatabaseUser     string `env:"PGUSER" required:"true"`
	DatabasePassword string `env:"PGPASSWORD" required:"true"`
	DatabaseSslMode  string `env:"PGSSLMODE"`

	RmqHost     string `env:"RMQ_HOST" required:"true"`
	RmqPort     int    `env:"RMQ_PORT" required:"true"`
	RmqVhost    string `env:"RMQ_VHOST" required:"true"`
	RmqUser     string `env:"RMQ_USER" required:"true"`
	RmqPassword string `env:"RMQ_PASSWORD" required:"true"`
}

func main() {
	app, ctx := entry.NewApplication("watches-consumer")
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

	// Configure our database connection and initialize a Queries struct, so we can
	// compare new watches against the ones we last recorded
	connectionString := db.FormatConnectionString(
		config.DatabaseHost,
		config.DatabasePort,
		config.DatabaseName,
		config.DatabaseUser,
		config.DatabasePassword,
		config.DatabaseSslMode,
	)
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		app.Fail("Failed to open sql.DB", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		app.Fail("Failed to connect to database", err)
	}
	q := queries.New(db)

	// Initialize a Tautulli client and the service that reduces its history to the
	// latest watch per viewer
	tautulliClient := tautulli.NewClient(config.TautulliURL, config.TautulliApiKey, time.Duration(config.TautulliTimeoutSeconds)*time.Second)
	service := aggregator.NewService(tautulliClient)

	// Initialize an AMQP client
	amqpConn, err := amqp.Dial(rmq.FormatConnectionString(config.RmqHost, config.RmqPort, config.RmqVhost, config.RmqUser, config.RmqPassword))
	if err != nil {
		app.Fail("Failed to connect to AMQP server", err)
	}
	defer amqpConn.Close()

	// Prepare a producer that we can use to send messages to the watch-events queue
	watchEventsProducer, err := rmq.NewProducer(amqpConn, "watch-events")
	if err != nil {
		app.Fail("Failed to initialize AMQP producer for watch-events", err)
	}

	// Prepare a consumer and start receiving incoming messages from the
	// playback-events exchange: each time an item is played, we'll recompute its
	// latest watches and produce to watch-events if anything has changed
	playbackEventsConsumer, err := rmq.NewConsumer(amqpConn, "playback-events")
	if err != nil {
		app.Fail("Failed to initialize AMQP consumer for playback-events", err)
	}
	playbackEvents, err := playbackEventsConsumer.Recv(ctx)
	if err != nil {
		app.Fail("Failed to init recv channel on playback-events consumer", err)
	}

	// Prepare a state.Writer interface, allowing us to record latest watches in a way
	// that propagates to the DB and the watch-events queue
	writer := state.NewWriter(q, watchEventsProducer)
	m := metrics.New()
	handler := consumer.NewHandler(service, writer, m, app.Log())

	// Serve our metrics over HTTP for as long as the consumer is running
	r := mux.NewRouter()
	m.RegisterRoutes(r)
	go entry.RunServer(ctx, app.Log(), r, config.BindAddr, config.MetricsPort)

	// Handle each message from the queue in turn: events are processed one at a time
	// so that two updates to the same item's recorded watches never interleave
	wg, ctx := errgroup.WithContext(ctx)
	wg.SetLimit(1)
	done := false
	for !done {
		select {
		case <-ctx.Done():
			app.Log().Info("Consumer context canceled; exiting main loop")
			done = true
		case d, ok := <-playbackEvents:
			if ok {
				wg.Go(func() error {
					return handler.Handle(ctx, d.Body)
				})
			} else {
				app.Log().Info("Channel is closed; exiting main loop")
				done = true
			}
		}
	}

	if err := wg.Wait(); err != nil {
		app.Fail("Encountered an error during message handling", err)
	}
}
