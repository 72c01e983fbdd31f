package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"table-orders/internal/config"
	"table-orders/internal/connections/database"
	"table-orders/internal/microservices/notificator"
	"table-orders/internal/microservices/order"
	"table-orders/internal/microservices/order/repository"
	"table-orders/internal/microservices/tracker"
)

func NewServeCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, dispatch trigger and staff websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := root.connect(cmd.Context(), "order-service", usesBroker)
			if err != nil {
				return err
			}
			defer d.close()
			return order.Run(cmd.Context(), d.cfg, d.db, d.rmq, d.log)
		},
	}
}

func NewNotifierCommand(root *RootOptions) *cobra.Command {
	var prefetch int
	cmd := &cobra.Command{
		Use:   "notifier",
		Short: "Consume order.created messages and push to POS devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := root.connect(cmd.Context(), "notification-subscriber", func(*config.Config) bool { return true })
			if err != nil {
				return err
			}
			defer d.close()

			repo := repository.New(d.db, d.log)
			svc, err := notificator.Build(cmd.Context(), d.cfg, repo.OrderRepo, repo.DeviceRepo, d.log)
			if err != nil {
				return err
			}
			if prefetch <= 0 {
				prefetch = d.cfg.RabbitMQ.Prefetch
			}
			return notificator.Start(cmd.Context(), svc, d.rmq, prefetch, d.log)
		},
	}
	cmd.Flags().IntVar(&prefetch, "prefetch", 0, "RabbitMQ prefetch (default from config)")
	return cmd
}

func NewDispatchCommand(root *RootOptions) *cobra.Command {
	var (
		orderID string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:     "dispatch",
		Short:   "Push one stored order to every registered device and print the summary",
		Example: `  table-orders dispatch --order-id 0192f3a0-0000-7000-8000-000000000001`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := root.connect(cmd.Context(), "dispatch", nil)
			if err != nil {
				return err
			}
			defer d.close()

			repo := repository.New(d.db, d.log)
			svc, err := notificator.Build(cmd.Context(), d.cfg, repo.OrderRepo, repo.DeviceRepo, d.log)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			sum, err := svc.NotificatorService.DispatchOrder(ctx, orderID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"success": true, "summary": sum})
		},
	}
	cmd.Flags().StringVar(&orderID, "order-id", "", "order to dispatch (required)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "overall deadline; devices not done by then count as failed")
	_ = cmd.MarkFlagRequired("order-id")
	return cmd
}

func NewWatchCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the live staff screen in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := root.connect(cmd.Context(), "staff-watch", func(c *config.Config) bool {
				return c.Realtime.Driver == "rabbitmq"
			})
			if err != nil {
				return err
			}
			defer d.close()
			if d.cfg.Realtime.Driver == "memory" {
				d.log.Warn("watch_memory_feed", nil, map[string]any{"detail": "memory feed only sees changes made by this process"})
			}

			repo := repository.New(d.db, d.log)
			svc, _, err := tracker.Build(d.cfg, repo.OrderRepo, d.rmq, d.log)
			if err != nil {
				return err
			}
			return tracker.Watch(cmd.Context(), svc, cmd.OutOrStdout())
		},
	}
}

func NewMigrateCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema for the configured database driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := root.connect(cmd.Context(), "migrate", nil)
			if err != nil {
				return err
			}
			defer d.close()
			if err := database.Migrate(cmd.Context(), d.db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema applied (%s)\n", d.cfg.Database.Driver)
			return nil
		},
	}
}
