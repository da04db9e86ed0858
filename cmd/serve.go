package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SECUREATTEND/jobs"
	"SECUREATTEND/routes"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the attendance HTTP API together with the scheduled
snapshot backup and daily summary jobs.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.cfg.RequireAuth(); err != nil {
		return err
	}

	host, port := a.cfg.Web.Host, a.cfg.Web.Port
	if h := mustGetString(cmd, "host"); h != "" {
		host = h
	}
	if p := mustGetInt(cmd, "port"); p != 0 {
		port = p
	}

	sch, err := jobs.New(a.svc, a.log, a.cfg.Attendance.Location, a.cfg.Jobs.BackupCron, a.cfg.Jobs.SummaryCron)
	if err != nil {
		return err
	}
	sch.Start()
	defer sch.Stop()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           routes.SetupRouter(a.cfg, a.svc, a.log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info(ctx, "listening", "addr", srv.Addr, "matcher", a.cfg.Matching.Matcher, "threshold", a.cfg.Matching.Threshold)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("starting server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
