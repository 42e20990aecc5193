package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goSession "github.com/MrEthical07/goSession"
	promexport "github.com/MrEthical07/goSession/metrics/export/prometheus"
)

type WatchCmd struct {
	MetricsAddr  string        `help:"Serve Prometheus metrics on this address." default:""`
	Audit        bool          `help:"Print audit events as JSON lines."`
	PollInterval time.Duration `help:"How often to poll Kratos for a vanished session." default:"30s"`
}

func (w *WatchCmd) Run(ctx context.Context, globals *Globals) error {
	rt, err := open(ctx, globals, w.Audit)
	if err != nil {
		return err
	}
	defer rt.close()

	unsubscribe := rt.store.OnStateChange(printState)
	defer unsubscribe()

	if w.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              w.MetricsAddr,
			Handler:           promexport.Handler(rt.store),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				rt.log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := rt.store.Initialize(ctx); err != nil {
		return err
	}
	go rt.provider.Watch(ctx, w.PollInterval)
	fmt.Fprintln(stdout, "watching session (press Ctrl+C to stop)...")

	<-ctx.Done()
	snap := rt.store.MetricsSnapshot()
	fmt.Fprintf(stdout, "validity checks: %d, invalidations: %d\n",
		snap.Counters[goSession.MetricValidityCheck], snap.Counters[goSession.MetricSessionInvalidated])
	return nil
}
