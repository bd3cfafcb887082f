// Package screenerd runs the HTTP server.
package screenerd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"screener/api"
	"screener/cache"
	"screener/config"
)

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	stack, err := NewStack(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stack.Close()

	if mem, ok := stack.Store.(*cache.Memory); ok && cfg.Cache.PurgeSchedule != "" {
		p, err := startPurger(cfg.Cache.PurgeSchedule, mem, log.Named("purge"))
		if err != nil {
			return fmt.Errorf("schedule cache purge: %w", err)
		}
		defer p.Stop()
	}

	h := api.NewHandler(stack.Runner, api.HandlerOptions{
		ViewDefaults: ViewDefaults(cfg.View),
		MaxUploadMB:  cfg.Server.MaxUploadMB,
		Origins:      cfg.Server.CORSOrigins,
	}, log.Named("api"))
	srv := api.NewServer(h, cfg.Server, log.Named("http"))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		return srv.Shutdown(context.Background())
	}
}
