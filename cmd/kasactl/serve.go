package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xtort/kasa-hs300/internal/config"
	"github.com/xtort/kasa-hs300/internal/logging"
	"github.com/xtort/kasa-hs300/internal/server"
)

var (
	listenAddr  string
	pollSeconds int
	logLevel    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the strip over a local HTTP API",
	Long: `Run a long-lived HTTP API server for one power strip.

The server owns the device session; other tools switch outlets and
read status with plain JSON requests instead of speaking the device
protocol. A WebSocket at /ws pushes the outlet status on a fixed
interval.

Endpoints:
  GET  /api/health                 liveness
  GET  /api/device                 device identity
  GET  /api/outlets                last-known outlet states
  GET  /api/outlets/{slot}/power   realtime energy reading
  POST /api/outlets/{slot}/state   {"state": "on"|"off"}
  POST /api/outlets/state          switch every outlet
  POST /api/refresh                re-query the device
  GET  /ws                         status push WebSocket`,
	Example: `  kasactl serve
  kasactl serve --listen 0.0.0.0:8080 --poll 2`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default from config, else 127.0.0.1:8080)")
	serveCmd.Flags().IntVar(&pollSeconds, "poll", 0, "WebSocket status poll interval in seconds (default from config, else 5)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if logLevel != "" {
		if err := logging.Initialize(logLevel); err != nil {
			return err
		}
	}

	reg, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	addr := listenAddr
	poll := pollSeconds
	if prefs := reg.Preferences; prefs != nil {
		if addr == "" {
			addr = prefs.ListenAddr
		}
		if poll == 0 {
			poll = prefs.PollSeconds
		}
	}
	if addr == "" {
		addr = "127.0.0.1:8080"
	}
	if poll <= 0 {
		poll = 5
	}

	strip, err := resolveStrip(cmd)
	if err != nil {
		return err
	}
	defer strip.Close()

	info := strip.Info()
	fmt.Printf("Serving %s %q (%d outlets) on http://%s\n",
		info.Model, info.Alias, info.OutletCount, addr)

	srv := server.New(strip, time.Duration(poll)*time.Second)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-stop:
		fmt.Println("\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
