package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/YelzhanWeb/restaurant/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/restaurant/internal/adapter/http"
	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/postgres"
	"github.com/YelzhanWeb/restaurant/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/restaurant/internal/config"
	"github.com/YelzhanWeb/restaurant/internal/domain"
)

func subscriberCmd() *cobra.Command {
	var prefetch int

	cmd := &cobra.Command{
		Use:   "notification-subscriber",
		Short: "Consume order events from RabbitMQ and render customer notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			lgr := logger.New("notification-subscriber", cfg.Log.Level)

			conn, err := rabbitmq.Connect(cfg.RabbitMQ)
			if err != nil {
				return err
			}
			defer conn.Close()

			handler := amqp.NewNotificationHandler(lgr, cfg.Notifications.AdminEmail, nil)
			consumer := rabbitmq.NewConsumer(conn, prefetch, lgr)

			lgr.Info("service_started", "Notification subscriber started", "startup", nil)
			err = consumer.ConsumeNotifications(ctx, handler.HandleNotification)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVar(&prefetch, "prefetch", 10, "RabbitMQ prefetch count")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			db, err := postgres.Connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func seedPermissionsCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed-permissions",
		Short: "Insert the default permission table",
		Long:  "Insert the default permission table. Existing rows are kept unless --force is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			in, err := loadInfra(ctx, "seed-permissions")
			if err != nil {
				return err
			}
			defer in.Close()

			n, err := in.permissions.EnsureDefaults(ctx, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d permission entries written\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing entries with the defaults")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		userID int64
		role   string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			r, err := domain.ParseRole(role)
			if err != nil {
				return err
			}

			tok, err := httpAdapter.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).
				Issue(domain.Identity{UserID: userID, Role: r})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id to embed in the token")
	cmd.Flags().StringVar(&role, "role", "", "ADMIN | KITCHEN_STAFF | DELIVERY_STAFF | CUSTOMER_SUPPORT | CUSTOMER")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
