package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/braintree/manners"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rorycl/QBOConnect/flow"
	"github.com/rorycl/QBOConnect/qbo"
	"github.com/rorycl/QBOConnect/store"
	log "github.com/sirupsen/logrus"
)

const description = "QuickBooks Online oauth connector"
const version = "0.1.0 October 2026"
const usage = " <options>" + "\n\n  " + description

// startupTimeout bounds the database ping and migrations at start
const startupTimeout = 10 * time.Second

func main() {

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("failed to load .env file")
	}

	options, parser, err := parseOpts(os.Args[1:])
	if err != nil {
		var flagError *flags.Error
		if errors.As(err, &flagError) && flagError.Type == flags.ErrHelp {
			os.Exit(0)
		}
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}
	if err := options.setupLogging(); err != nil {
		log.Fatalf("log level error: %s", err)
	}

	cfg, err := options.clientConfig()
	if err != nil {
		log.Fatalf("configuration error: %s", err)
	}
	client, err := qbo.NewClient(cfg)
	if err != nil {
		log.Fatalf("new qbo client error: %s", err)
	}

	dsn, err := options.DB.DSN()
	if err != nil {
		log.Fatalf("database configuration error: %s", err)
	}
	db, err := store.Open(store.DriverPostgres, dsn)
	if err != nil {
		log.Fatalf("database error: %s", err)
	}
	defer db.Close()
	connectStore(db)

	ctl := flow.New(client, db, flow.Options{
		Environment: options.Environment,
		State:       options.State,
		APITimeout:  options.APITimeout,
		Logger:      log.StandardLogger(),
	})

	r := mux.NewRouter()
	ctl.Routes(r)

	// create a handler wrapped in a recovery handler and logging handler
	accessLog := log.StandardLogger().Writer()
	defer accessLog.Close()
	hdl := handlers.RecoveryHandler(handlers.RecoveryLogger(log.StandardLogger()))(
		handlers.LoggingHandler(accessLog, r))

	// the write timeout allows for a slow company info call
	server := manners.NewWithServer(&http.Server{
		Addr:         options.Addr + ":" + options.Port,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: options.APITimeout + qbo.DefaultExchangeTimeout,
		Handler:      hdl,
	})

	// catch signals
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go listenForShutdown(ch, server)

	log.Printf("serving %s on %s:%s", options.Environment, options.Addr, options.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Errorf("server error: %s", err)
	}
	log.Print("server stopped")
}

// connectStore checks the database and applies migrations. Failure is
// logged and the server still starts; callbacks then fail at the
// persistence stage.
func connectStore(db *store.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		log.WithError(err).Error("database connection error")
		return
	}
	if err := db.Migrate(ctx, store.DialectPostgres); err != nil {
		log.WithError(err).Error("database migration error")
		return
	}
	n, err := db.Count(ctx)
	if err != nil {
		log.WithError(err).Error("database count error")
		return
	}
	log.Printf("database connected successfully, %d token records", n)
}

func listenForShutdown(ch <-chan os.Signal, server *manners.GracefulServer) {
	<-ch
	log.Print("closing the server")
	server.Close()
}
