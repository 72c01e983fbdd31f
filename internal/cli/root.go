// Package cli defines the table-orders command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"table-orders/internal/common/logger"
	"table-orders/internal/config"
	"table-orders/internal/connections/database"
	"table-orders/internal/connections/rabbitmq"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "table-orders",
		Short:         "Table ordering backend",
		Long:          "Order intake, POS push fan-out and live staff views for table-side ordering.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config (default: ./config.yaml if present)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewNotifierCommand(opts))
	cmd.AddCommand(NewDispatchCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		cancel()
		os.Exit(1)
	}
}

func (o *RootOptions) load() (*config.Config, error) {
	path := o.ConfigPath
	if path == "" {
		path = config.FindConfig()
	}
	return config.Load(path)
}

// deps are the connections a command opened; close releases them.
type deps struct {
	cfg *config.Config
	db  *database.DB
	rmq *rabbitmq.Client
	log *logger.Logger
}

func (d *deps) close() {
	if d.rmq != nil {
		d.rmq.Close()
	}
	if d.db != nil {
		_ = d.db.Close()
	}
}

// connect loads config and opens the database, plus the broker when
// needBroker reports true for the loaded config.
func (o *RootOptions) connect(ctx context.Context, service string, needBroker func(*config.Config) bool) (*deps, error) {
	lg := logger.New(service)
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: cfg, log: lg}

	d.db, err = database.ConnectDB(ctx, cfg.Database)
	if err != nil {
		lg.Error("db_connection_failed", err, nil)
		return nil, err
	}
	lg.Info("db_connected", map[string]any{"driver": cfg.Database.Driver})
	if cfg.Database.Driver == database.DriverSQLite {
		if err := database.Migrate(ctx, d.db); err != nil {
			d.close()
			return nil, err
		}
	}

	if needBroker != nil && needBroker(cfg) {
		d.rmq, err = rabbitmq.Dial(cfg.RabbitMQ)
		if err != nil {
			lg.Error("rabbitmq_connection_failed", err, nil)
			d.close()
			return nil, err
		}
		if err := d.rmq.DeclareTopology(); err != nil {
			d.close()
			return nil, err
		}
		lg.Info("rabbitmq_connected", map[string]any{"host": cfg.RabbitMQ.Host, "vhost": cfg.RabbitMQ.VHost})
	}
	return d, nil
}

func usesBroker(cfg *config.Config) bool {
	return cfg.Notify.Driver == "rabbitmq" || cfg.Realtime.Driver == "rabbitmq"
}
