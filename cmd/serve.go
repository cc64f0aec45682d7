package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"github.com/simonvc/erpledger/internal/config"
	"github.com/simonvc/erpledger/internal/logging"
	"github.com/simonvc/erpledger/internal/server"
	"github.com/simonvc/erpledger/internal/service"
	"github.com/simonvc/erpledger/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}

		svc, closer, err := openService(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer closer.Close()

		log.WithFields(logrus.Fields{
			"addr":    cfg.Server.Addr,
			"db":      cfg.DB.Path,
			"company": svc.Company(),
			"redis":   cfg.Redis.Enabled(),
		}).Info("starting erpledger server")

		return server.New(svc, cfg.Server.Addr, log).ListenAndServe()
	},
}

// openService opens the store and, when redis is configured, the shared
// journal lock and read cache. Closing the returned io.Closer releases all
// of them.
func openService(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*service.Service, io.Closer, error) {
	st, err := store.Open(cfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	closers := multiCloser{st}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithCompany(cfg.Company.Name),
		service.WithNumberingRetries(cfg.Ledger.NumberingRetries),
	}

	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			st.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		closers = append(closers, rdb)
		opts = append(opts,
			service.WithLocker(service.NewRedisLocker(rdb)),
			service.WithCache(service.NewRedisCache(rdb, cfg.Cache.TTL)),
		)
	}

	return service.New(st, opts...), closers, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for i := len(m) - 1; i >= 0; i-- {
		if err := m[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func init() {
	serveCmd.Flags().String("addr", ":8888", "Listen address")
	if err := v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr")); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(serveCmd)
}
