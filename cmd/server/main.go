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
	"github.com/jrsteele09/subhub-server/auth"
	"github.com/jrsteele09/subhub-server/auth/sessions"
	"github.com/jrsteele09/subhub-server/internal/config"
	"github.com/jrsteele09/subhub-server/server"
	"github.com/jrsteele09/subhub-server/storage"
	"github.com/jrsteele09/subhub-server/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	userRepo := users.NewInMemoryUserRepo()
	store := storage.NewManager(c.GetDataFile(), userRepo, storage.WithThrottle(c.GetSaveThrottle()))
	if _, err := store.Backup(); err != nil {
		log.Warn().Err(err).Str("path", store.Path()).Msg("Starting without a backup of the data file")
	}
	if _, err := store.Load(); err != nil {
		// Keep serving with an empty store; the next save replaces the bad file.
		log.Err(err).Str("path", store.Path()).Msg("Could not load saved accounts")
	}

	userService, err := users.NewService(userRepo, users.NewDefaultHasher(), users.WithPersister(store))
	if err != nil {
		return fmt.Errorf("users.NewService: %w", err)
	}

	authService, err := auth.NewAuthenticationService(auth.Repos{
		Users:    userService,
		Sessions: sessions.NewInMemoryRepo(),
	}, auth.WithSessionTTL(c.GetSessionTTL()), auth.WithTokenLength(c.GetTokenLength()))
	if err != nil {
		return fmt.Errorf("auth.NewAuthenticationService: %w", err)
	}

	handler, err := server.New(c, authService, userService)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go store.Run(ctx, c.GetFlushInterval())

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- listenAndServe(httpServer)
	}()

	select {
	case err := <-errCh:
		returnError = err
	case <-waitForStopSignal():
		returnError = shutdown(httpServer)
	}

	cancel()
	if err := store.Save(true); err != nil {
		returnError = errors.Join(returnError, fmt.Errorf("final save: %w", err))
	}
	return returnError
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
