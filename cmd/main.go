// Command navpack-orchestrator boots the HTTP façade, the Temporal worker,
// or both in one process, following the teacher's RUN_SERVER/RUN_WORKER
// split so the same binary can run as a scaled-out API tier or a
// scaled-out worker tier depending on deployment.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/takahashiJe/navpack-orchestrator/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runServer := envTrue("RUN_SERVER", true)
	runWorker := envTrue("RUN_WORKER", false)

	if err := a.Start(ctx, runServer, runWorker); err != nil {
		a.Log.Fatal("failed to start app", "error", err.Error())
	}

	if !runServer {
		a.Log.Info("running in worker-only mode", "run_worker", runWorker)
		<-ctx.Done()
		return
	}

	go func() {
		<-ctx.Done()
		a.Close()
	}()

	if err := a.Run(); err != nil {
		a.Log.Fatal("http server exited with error", "error", err.Error())
	}
}

func envTrue(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}
