package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockdash/m/internal/api"
	"stockdash/m/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Bootstrap(ctx)
	if err != nil {
		app.Fatal(err)
	}
	defer a.Close()

	handler, err := api.New(a.Inventory, a.Logger, api.Options{
		Secret:            a.Config.Secret,
		AdminUser:         a.Config.AdminUser,
		AdminPassword:     a.Config.AdminPassword,
		LowStockThreshold: a.Config.LowStock,
	})
	if err != nil {
		a.Logger.WithError(err).Fatal("unable to build API handler")
	}

	srv := &http.Server{
		Addr:              ":" + a.Config.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.Logger.Infof("stockdash server starting on :%s", a.Config.HTTPPort)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.Logger.WithError(err).Fatal("server error")
	}
	a.Logger.Info("server stopped")
}
