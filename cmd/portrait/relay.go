package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/chatportraits/internal/relay"
)

// relayAddrEnv overrides the default listen address.
const relayAddrEnv = "PORTRAIT_RELAY_ADDR"

const defaultRelayAddr = ":8080"

var relayOpts struct {
	addr    string
	envFile string
}

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the websocket relay peers broadcast through",
	Long: `Run the websocket relay that fans portrait events out to every peer in a
room. Point each portraitd's channel.url at ws://HOST:PORT/ws.

The listen address comes from --addr, then $PORTRAIT_RELAY_ADDR (a .env file
in the working directory is loaded first), then :8080.

Endpoints:
  GET /ws?room=R&client=C   websocket
  GET /healthz              room occupancy as JSON`,
	RunE: runRelay,
}

func init() {
	rootCmd.AddCommand(relayCmd)

	relayCmd.Flags().StringVar(&relayOpts.addr, "addr", "",
		"Listen address (default $"+relayAddrEnv+" or "+defaultRelayAddr+")")
	relayCmd.Flags().StringVar(&relayOpts.envFile, "env-file", ".env",
		"Environment file to load before reading $"+relayAddrEnv)
}

// relayAddr resolves the listen address: flag, environment, default.
func relayAddr() string {
	if relayOpts.addr != "" {
		return relayOpts.addr
	}
	if addr := os.Getenv(relayAddrEnv); addr != "" {
		return addr
	}
	return defaultRelayAddr
}

func runRelay(cmd *cobra.Command, args []string) error {
	if relayOpts.envFile != "" {
		if err := godotenv.Load(relayOpts.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", relayOpts.envFile, err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hub := relay.NewHub(ctx, logger)
	defer hub.Close()

	srv := &http.Server{
		Addr:              relayAddr(),
		Handler:           relay.Routes(hub, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("relay listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("relay server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down relay")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
