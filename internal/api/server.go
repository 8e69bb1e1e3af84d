package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/grussorusso/offsim/internal/metrics"
)

// RegisterRoutes installs the status and metrics endpoints.
func RegisterRoutes(e *echo.Echo, src ProgressSource, portNumber int) {
	e.Use(middleware.Recover())

	e.GET("/status", GetServerStatus(src, portNumber))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// StartAPIServer serves the simulation status until the server is shut down.
func StartAPIServer(e *echo.Echo, src ProgressSource, portNumber int) {
	RegisterRoutes(e, src, portNumber)
	e.HideBanner = true
	e.HidePort = true

	log.Infof("Status server listening on port %d", portNumber)
	if err := e.Start(fmt.Sprintf(":%d", portNumber)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("Status server failed: %v", err)
	}
}

// ShutdownAPIServer stops the server, waiting at most ten seconds.
func ShutdownAPIServer(e *echo.Echo) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Warnf("Could not stop the status server: %v", err)
	}
}

// RegisterTerminationHandler cancels the simulation on SIGINT.
func RegisterTerminationHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		sig := <-c
		fmt.Printf("Got %s signal. Terminating...\n", sig)
		cancel()
	}()
}
