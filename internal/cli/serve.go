package cli

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodehealth/pkg/cache"
	"github.com/matzehuels/nodehealth/pkg/config"
	"github.com/matzehuels/nodehealth/pkg/history"
	"github.com/matzehuels/nodehealth/pkg/report"
	"github.com/matzehuels/nodehealth/pkg/server"
)

const shutdownTimeout = 15 * time.Second

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr     string
	redisURL string
	mongoURI string
	mongoDB  string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report API over HTTP",
		Long: `Serve the report API over HTTP.

Clients POST a packed .tgz to /v1/reports. Reports are cached in Redis when
--redis-url is set (in memory otherwise) and kept in MongoDB when --mongo-uri
is set (in memory otherwise).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return err
			}
			opts.applyConfig(cmd, cfg)
			return c.runServe(cmd.Context(), opts, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", ":8080", "listen address")
	f.StringVar(&opts.redisURL, "redis-url", "", "Redis URL for the report cache")
	f.StringVar(&opts.mongoURI, "mongo-uri", "", "MongoDB URI for report history")
	f.StringVar(&opts.mongoDB, "mongo-db", history.DefaultDatabase, "MongoDB database name")

	return cmd
}

func (o *serveOpts) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	s := cfg.Serve
	if !set("addr") && s.Addr != "" {
		o.addr = s.Addr
	}
	if !set("redis-url") && s.RedisURL != "" {
		o.redisURL = s.RedisURL
	}
	if !set("mongo-uri") && s.MongoURI != "" {
		o.mongoURI = s.MongoURI
	}
	if !set("mongo-db") && s.MongoDatabase != "" {
		o.mongoDB = s.MongoDatabase
	}
}

// runServe starts the HTTP server and blocks until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, opts serveOpts, cfg *config.Config) error {
	logger := loggerFromContext(ctx)

	rc, keyer, err := c.serviceCache(ctx, opts)
	if err != nil {
		return err
	}
	defer rc.Close()

	store, err := c.historyStore(ctx, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	registerLogHooks(logger)
	srv := server.New(server.Config{
		Runner:         report.NewRunner(rc, keyer, logger),
		History:        store,
		Logger:         logger,
		MaxUploadBytes: cfg.Serve.MaxUploadMB << 20,
	})

	httpSrv := &http.Server{
		Addr:              opts.addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", opts.addr)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// serviceCache picks Redis when configured and an in-memory cache otherwise.
// Keys are scoped so a shared Redis can hold several deployments.
func (c *CLI) serviceCache(ctx context.Context, opts serveOpts) (cache.Cache, cache.Keyer, error) {
	keyer := cache.NewScopedKeyer(nil, appName+":")
	if opts.redisURL != "" {
		rc, err := cache.NewRedisCache(ctx, opts.redisURL)
		if err != nil {
			return nil, nil, err
		}
		c.Logger.Debug("report cache", "backend", "redis")
		return rc, keyer, nil
	}
	mc, err := cache.NewMemoryCache(cache.DefaultMemoryEntries)
	if err != nil {
		return nil, nil, err
	}
	return mc, keyer, nil
}

// historyStore picks MongoDB when configured and an in-memory store otherwise.
func (c *CLI) historyStore(ctx context.Context, opts serveOpts) (history.Store, error) {
	if opts.mongoURI == "" {
		return history.NewMemoryStore(0), nil
	}
	return history.NewMongoStore(ctx, opts.mongoURI, opts.mongoDB)
}
