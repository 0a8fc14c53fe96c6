package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angch/logrelay/config"
	"github.com/angch/logrelay/ipc"
	"github.com/angch/logrelay/relay"
	"github.com/angch/logrelay/sink"
	"github.com/angch/logrelay/sysstat"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	socketDir := ipc.GetSocketDir()

	if cfg.Status {
		instances, err := ipc.ListInstances(socketDir)
		if err != nil {
			log.Printf("Failed to list instances: %v", err)
			return 1
		}
		printInstanceTable(os.Stdout, instances)
		return 0
	}

	tool, err := cfg.ResolveTool()
	if err != nil {
		log.Fatalf("Invalid tool: %v", err)
	}

	recorder := sink.NewRecorder(100)
	var out sink.Sink = sink.Tee{sink.NewLogger(nil), recorder}

	collector := sysstat.New()

	if cfg.Sentry.DSN != "" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			Release:     cfg.Sentry.Release,
		})
		if err != nil {
			log.Fatalf("Failed to initialize Sentry: %v", err)
		}
		defer sentry.Flush(2 * time.Second)

		if cfg.Verbose {
			log.Printf("Initialized Sentry (env=%s, release=%s)", cfg.Sentry.Environment, cfg.Sentry.Release)
		}
		out = sink.NewSentry(out, nil, collector)
	}

	r := relay.New(tool, out, cfg.Verbose)

	if cfg.Clear {
		return clearInstances(socketDir, r)
	}

	collector.Track(r.Pid)
	go collector.Run()
	defer collector.Stop()

	if cfg.MetricsPort > 0 {
		go serveMetrics(cfg.MetricsPort)
	}

	if err := ipc.EnsureSecureDirectory(socketDir); err != nil {
		log.Printf("IPC disabled: %v", err)
	} else {
		ipc.RemoveStale(socketDir)
		socketPath := ipc.SocketPath(socketDir, os.Getpid())
		go func() {
			if err := ipc.StartServer(socketPath, cfg, r, recorder); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("IPC server stopped: %v", err)
			}
		}()
		defer os.Remove(socketPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.ConfigPath != "" {
		applied := *cfg
		go watchConfig(ctx, cfg.ConfigPath, func(newCfg *config.Config) {
			applyReload(&applied, newCfg, r)
		})
	}

	r.Install()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		if cfg.Verbose {
			log.Printf("Received signal %v, shutting down...", sig)
		}
		if err := r.Close(); err != nil {
			log.Printf("Error stopping %s: %v", tool.Name, err)
		}
		<-r.Done()
	case <-r.Done():
		if cfg.Verbose {
			log.Printf("%s stream ended", tool.Name)
		}
	}

	if r.Stats().Errors > 0 {
		return 1
	}
	return 0
}

// clearInstances asks every running instance to clear its buffer. With no
// instance running, the buffer is cleared locally.
func clearInstances(socketDir string, r *relay.Relay) int {
	sockets, err := ipc.ListSockets(socketDir)
	if err != nil || len(sockets) == 0 {
		r.ClearLogs()
		if r.Stats().Errors > 0 {
			return 1
		}
		return 0
	}

	code := 0
	for _, socketPath := range sockets {
		if err := ipc.RequestClear(socketPath); err != nil {
			log.Printf("Failed to clear via %s: %v", socketPath, err)
			code = 1
		}
	}
	return code
}

func serveMetrics(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	log.Printf("Serving metrics on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("Metrics server stopped: %v", err)
	}
}

// applyReload applies the settings that can change while the relay runs
// and records them in cur.
func applyReload(cur, next *config.Config, r *relay.Relay) {
	if next.Tool != cur.Tool || next.Command != cur.Command || next.ClearCommand != cur.ClearCommand {
		log.Printf("Tool changed from %s to %s; restart to apply", cur.Tool, next.Tool)
	}
	if next.Sentry != cur.Sentry {
		log.Println("Sentry settings changed; restart to apply")
	}
	if next.MetricsPort != cur.MetricsPort {
		log.Println("metrics_port changed; restart to apply")
	}
	if next.Verbose != cur.Verbose {
		log.Printf("Verbose logging set to %v", next.Verbose)
		r.SetVerbose(next.Verbose)
		cur.Verbose = next.Verbose
	}
}
