// Command skynetd boots one node of the runtime: it reads the
// environment settings config.FromEnviron understands, constructs an
// Engine, wires the harbor delegate and optional cluster discovery,
// runs the bootstrap LAUNCH command, and serves Prometheus metrics
// until the process is signaled to stop.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sys/unix"

	"github.com/prynsxdnl176/annotated-skynet/actor"
	"github.com/prynsxdnl176/annotated-skynet/cluster"
	"github.com/prynsxdnl176/annotated-skynet/config"
	"github.com/prynsxdnl176/annotated-skynet/remote"
)

func main() {
	metricsAddr := flag.String("metrics-addr", "", "address to serve /metrics on, e.g. :9090 (disabled if empty)")
	harborAddr := flag.String("harbor-addr", "", "TCP address the harbor delegate listens on for inter-node traffic (disabled if empty)")
	consul := flag.Bool("consul", false, "poll Consul KV for sibling node addresses instead of mDNS")
	flag.Parse()

	if err := run(*metricsAddr, *harborAddr, *consul); err != nil {
		slog.Error("skynetd exiting", "err", err)
		os.Exit(1)
	}
}

func run(metricsAddr, harborAddr string, useConsul bool) error {
	settings, err := config.FromEnviron()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var pidFile *os.File
	if settings.Daemon != "" {
		f, err := lockPIDFile(settings.Daemon)
		if err != nil {
			return fmt.Errorf("daemon: %w", err)
		}
		pidFile = f
		defer pidFile.Close()
	}

	engine := actor.NewEngine(settings.Engine)
	defer engine.Stop()

	config.ApplyToEnv(engine, map[string]string{"cpath": settings.CPath})

	if harborAddr != "" {
		mod := remote.NewModule(remote.NewConfig(harborAddr))
		engine.RegisterModule(mod)
		h, err := engine.Spawn("harbor", "")
		if err != nil {
			return fmt.Errorf("spawn harbor: %w", err)
		}
		engine.SetHarborDelegate(h)

		delegate, ok := engine.Instance(h)
		if !ok {
			return errors.New("harbor delegate vanished immediately after spawn")
		}
		remoteSvc := delegate.(*remote.Remote)

		if useConsul {
			reg, err := cluster.NewConsulRegistry(engine.Node(), remoteSvc.ListenAddr(), remoteSvc)
			if err != nil {
				return fmt.Errorf("consul registry: %w", err)
			}
			defer reg.Stop()
			reg.Poll(5 * time.Second)
		} else {
			disc, err := cluster.NewDiscovery(engine.Node(), remoteSvc.ListenAddr(), remoteSvc)
			if err != nil {
				return fmt.Errorf("mdns discovery: %w", err)
			}
			defer disc.Stop()
		}
	}

	if settings.Bootstrap != "" {
		verb, arg := splitCommand(settings.Bootstrap)
		if _, ok := engine.Command(0, verb, arg); !ok {
			return fmt.Errorf("bootstrap command %q failed", settings.Bootstrap)
		}
	}

	var metricsSrv *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(engine.MetricsRegistry, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: metricsAddr, Handler: mux}
		ln, err := net.Listen("tcp", metricsAddr)
		if err != nil {
			return fmt.Errorf("metrics listen: %w", err)
		}
		go func() {
			if err := metricsSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server stopped", "err", err)
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}

// splitCommand parses spec.md §6's "bootstrap" value, a single control
// verb optionally followed by one argument (e.g. "LAUNCH logger" or
// "LAUNCH gate 0.0.0.0 8888").
func splitCommand(s string) (verb, arg string) {
	for i, r := range s {
		if r == ' ' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

// lockPIDFile implements skynet_daemon.c's single-instance guard: an
// exclusive, non-blocking flock on path, with the process's own pid
// written into it once acquired.
func lockPIDFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("another instance holds %s: %w", path, err)
	}
	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
