package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gonet "github.com/strangerhq/stranger/internal/net"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// serveRendezvous runs the in-memory room directory until ctx is done.
func serveRendezvous(ctx context.Context, cfgPath string) error {
	cfg, log, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer initSentry(cfg.Sentry, log)()

	printSection("rendezvous")
	httpSrv := &http.Server{
		Addr:              cfg.Rendezvous.BindAddress,
		Handler:           gonet.NewDirectoryHandler(log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve rendezvous: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	printReady("room directory on " + cfg.Rendezvous.BindAddress)
	err = g.Wait()
	log.Info("rendezvous stopped", zap.Error(err))
	return err
}
