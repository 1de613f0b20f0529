package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-efactura/auth"
	"github.com/jrsteele09/go-efactura/internal/config"
	"github.com/jrsteele09/go-efactura/server"
	"github.com/jrsteele09/go-efactura/token"
	"github.com/jrsteele09/go-efactura/token/memorystore"
	"github.com/jrsteele09/go-efactura/token/sqlitestore"
	"github.com/rs/zerolog"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load() // .env is optional

	c := config.New()
	displayAppname(c.GetAppName())

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if c.GetEnv() == "DEV" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	store, err := buildTokenStore(c, logger)
	if err != nil {
		return fmt.Errorf("building token store: %w", err)
	}

	authConfig := auth.Config{
		ClientID:     c.GetClientID(),
		ClientSecret: c.GetClientSecret(),
		RedirectURL:  c.GetRedirectURL(),
		Scope:        c.GetScope(),
		Timeout:      c.GetRequestTimeout(),
	}

	tokens, err := auth.NewTokenService(authConfig, store, auth.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	handler, err := server.New(c, tokens, authConfig, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// buildTokenStore picks the persistent SQLite store when a path is
// configured and falls back to the in-process store otherwise. The sealed
// cookie store is not wired here: it binds per request and suits apps that
// keep tokens on the client instead of the server.
func buildTokenStore(c config.Config, logger zerolog.Logger) (token.Store, error) {
	if path := c.GetSQLitePath(); path != "" {
		logger.Info().Str("path", path).Msg("using sqlite token store")
		return sqlitestore.New(path)
	}
	logger.Info().Msg("using in-memory token store")
	return memorystore.New(), nil
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
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
