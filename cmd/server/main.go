package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-botlist-server/apikey"
	"github.com/jrsteele09/go-botlist-server/auth"
	"github.com/jrsteele09/go-botlist-server/discord"
	"github.com/jrsteele09/go-botlist-server/guard"
	"github.com/jrsteele09/go-botlist-server/hashing"
	"github.com/jrsteele09/go-botlist-server/internal/config"
	"github.com/jrsteele09/go-botlist-server/internal/metrics"
	"github.com/jrsteele09/go-botlist-server/server"
	"github.com/jrsteele09/go-botlist-server/sessions/sqlstore"
	"github.com/jrsteele09/go-botlist-server/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	configFile := pflag.StringP("config", "c", config.GetEnv("CONFIG_FILE", ""), "YAML config file; environment variables take precedence")
	port := pflag.StringP("port", "p", "", "listen port, overrides PORT")
	pflag.Parse()

	if *port != "" {
		_ = os.Setenv("PORT", *port)
	}

	if err := run(*configFile); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run(configFile string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	setupLogging(c.GetEnv())
	displayAppname(c.GetAppName())

	handler, closeStore, err := build(c)
	if err != nil {
		return err
	}
	defer closeStore()

	server := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(server) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

// build wires the store, token machinery, provider client and services into the HTTP server.
func build(c config.Config) (http.Handler, func(), error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	store, err := sqlstore.Open(context.Background(), c.GetDatabaseDriver(), c.GetDatabaseURL())
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("closing store")
		}
	}

	issuer, err := token.NewIssuer(token.Secrets{
		Access:  c.GetAccessSecret(),
		Refresh: c.GetRefreshSecret(),
		APIKey:  c.GetAPIKeySecret(),
	})
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	hasher := hashing.New(c.GetHashCost())

	provider, err := discord.NewClient(discord.Config{
		ClientID:     c.GetDiscordClientID(),
		ClientSecret: c.GetDiscordClientSecret(),
		RedirectURI:  c.GetDiscordRedirectURI(),
		Endpoints:    discord.EndpointsFor(c.GetDiscordAPIBaseURL()),
	}, discord.WithMetrics(m), discord.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}))
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	sessionService, err := auth.NewSessionService(auth.Deps{
		Store:    store,
		Provider: provider,
		Issuer:   issuer,
		Hasher:   hasher,
	}, auth.WithMetrics(m))
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	apiKeys, err := apikey.NewService(store, issuer, hasher)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	srv, err := server.New(c, server.Deps{
		Sessions: sessionService,
		APIKeys:  apiKeys,
		Bots:     store,
		Guard: guard.NewDispatcher(m,
			guard.NewAccessStrategy(issuer, store, hasher),
			guard.NewRefreshStrategy(issuer, store, hasher),
			guard.NewAPIKeyStrategy(issuer, store, hasher),
			guard.NewInternalStrategy(c.GetInternalKey()),
		),
		Permissions: guard.NewPermissionGuard(store),
		Metrics:     m,
		DB:          store.DB(),
	})
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return srv, closeStore, nil
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if env == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
