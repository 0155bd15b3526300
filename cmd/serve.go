package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	httpAdapter "github.com/YelzhanWeb/restaurant/internal/adapter/http"
	"github.com/YelzhanWeb/restaurant/internal/app/authz"
	"github.com/YelzhanWeb/restaurant/internal/app/order"
	"github.com/YelzhanWeb/restaurant/internal/app/permission"
	"github.com/YelzhanWeb/restaurant/internal/app/review"
	"github.com/YelzhanWeb/restaurant/internal/app/sweeper"
	"github.com/YelzhanWeb/restaurant/internal/app/tracking"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the expiry sweeper and notification dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			in, err := loadInfra(ctx, "order-service")
			if err != nil {
				return err
			}
			defer in.Close()

			if cmd.Flags().Changed("port") {
				in.cfg.Server.Port = port
			}
			return runServer(ctx, in)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides config)")
	return cmd
}

// runServer blocks until ctx is cancelled or the listener fails, then stops
// the server and the sweeper.
func runServer(ctx context.Context, in *infra) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dispatcher, err := in.startDispatcher()
	if err != nil {
		return err
	}

	gate := authz.NewGate(in.permissions, in.log, in.metrics)
	router := httpAdapter.NewRouter(httpAdapter.Deps{
		Orders:      order.NewService(in.orders, gate, dispatcher, in.log, in.metrics),
		Tracking:    tracking.NewService(in.orders, gate, in.log),
		Reviews:     review.NewService(in.reviews, in.orders, gate, in.log),
		Permissions: permission.NewAdmin(in.permissions, gate),
		Auth:        httpAdapter.NewAuthenticator(in.cfg.Auth.JWTSecret, in.cfg.Auth.TokenTTL),
		Logger:      in.log,
		Metrics:     in.metrics,
		Health:      in.health,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", in.cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  in.cfg.Server.ReadTimeout,
		WriteTimeout: in.cfg.Server.WriteTimeout,
	}

	var wg sync.WaitGroup
	if in.cfg.Sweeper.Enabled {
		sw := sweeper.NewService(in.orders, dispatcher, in.cfg.Sweeper.Interval, in.log, in.metrics)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sw.Run(ctx)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		in.log.Info("service_started", fmt.Sprintf("Order service listening on port %d", in.cfg.Server.Port), "startup", map[string]interface{}{
			"port":    in.cfg.Server.Port,
			"sweeper": in.cfg.Sweeper.Enabled,
			"store":   storeKind,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	in.log.Info("shutdown_initiated", "Shutting down order service", "shutdown", nil)
	cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), in.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		in.log.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
	}

	wg.Wait()
	return serveErr
}

func sweeperCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweeper",
		Short: "Run only the auto-expiry sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			in, err := loadInfra(ctx, "sweeper")
			if err != nil {
				return err
			}
			defer in.Close()

			dispatcher, err := in.startDispatcher()
			if err != nil {
				return err
			}

			sweeper.NewService(in.orders, dispatcher, in.cfg.Sweeper.Interval, in.log, in.metrics).Run(ctx)
			return nil
		},
	}
}
