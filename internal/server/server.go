// Package server runs the HTTP API, and the gRPC health service when
// GRPC_PORT is set, until the context is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shashiranjanraj/shopfront/config"
	"github.com/shashiranjanraj/shopfront/internal/kernel"
	shopgrpc "github.com/shashiranjanraj/shopfront/pkg/grpc"
	"github.com/shashiranjanraj/shopfront/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// Serve blocks until ctx is cancelled or the listener fails, then drains
// in-flight requests.
func Serve(ctx context.Context, app *kernel.App) error {
	handler, err := app.Handler()
	if err != nil {
		return err
	}

	addr := ":" + config.AppPort()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	}
	return serve(ctx, app, lis, &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	})
}

func serve(ctx context.Context, app *kernel.App, lis net.Listener, srv *http.Server) error {
	if port := config.GRPCPort(); port != "" {
		rpc, err := shopgrpc.Start(port, shopgrpc.PingFunc(app.Pinger()))
		if err != nil {
			return err
		}
		defer shopgrpc.Stop(rpc)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Scheduler.Start(gctx)
		return nil
	})

	// The memory queue lives in this process, so its workers must too.
	if config.QueueDriver() == "memory" {
		g.Go(func() error { return app.Queue.Run(gctx, config.QueueWorkers()) })
	}

	g.Go(func() error {
		logger.Info("server: http listening", "addr", lis.Addr().String(), "env", config.AppEnv())
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	logger.Info("server: stopped")
	return err
}
