// Package config reads the process-wide environment key/value store
// spec.md §6 defines (thread, harbor, bootstrap, cpath, logger,
// logservice, daemon, profile, logpath) and turns it into an
// actor.Config plus the handful of settings the engine itself doesn't
// own (bootstrap command, cpath, daemon PID-file path).
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/prynsxdnl176/annotated-skynet/actor"
)

// Settings is everything cmd/skynetd needs to boot one node, split
// between what actor.Config consumes directly and what only the
// bootstrap sequence needs.
type Settings struct {
	Engine actor.Config

	// Bootstrap is the control command line (verb, then argument) run
	// once the Engine is up, e.g. "LAUNCH logger" or "LAUNCH gate 0.0.0.0 8888".
	Bootstrap string

	// CPath is kept as metadata only: this port's Module loader is a
	// static, statically-linked registry (spec.md §4.4's "no dlopen"
	// redesign), so cpath never drives a real filesystem search, but a
	// caller may still want to record it for parity with a config file.
	CPath string

	// Daemon, if non-empty, is the PID-file path cmd/skynetd flocks to
	// enforce single-instance startup (skynet_daemon.c's behavior).
	Daemon string
}

const (
	keyThread     = "thread"
	keyHarbor     = "harbor"
	keyBootstrap  = "bootstrap"
	keyCPath      = "cpath"
	keyLogger     = "logger"
	keyLogService = "logservice"
	keyDaemon     = "daemon"
	keyProfile    = "profile"
	keyLogPath    = "logpath"
)

// FromEnviron reads the spec's environment keys out of the process
// environment (os.Getenv, not the runtime's own env store, which
// doesn't exist until an Engine is constructed) and applies defaults
// matching actor.NewConfig's.
func FromEnviron() (Settings, error) {
	cfg := actor.NewConfig()

	if v := os.Getenv(keyThread); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Settings{}, fmt.Errorf("config: invalid %s=%q", keyThread, v)
		}
		cfg = cfg.WithThreads(n)
	}

	if v := os.Getenv(keyHarbor); v != "" {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return Settings{}, fmt.Errorf("config: invalid %s=%q", keyHarbor, v)
		}
		cfg = cfg.WithNode(uint8(n))
	}

	if v := os.Getenv(keyProfile); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return Settings{}, fmt.Errorf("config: invalid %s=%q", keyProfile, v)
		}
		cfg = cfg.WithProfile(on)
	}

	if v := os.Getenv(keyLogPath); v != "" {
		cfg = cfg.WithLogPath(v)
	}

	return Settings{
		Engine:    cfg,
		Bootstrap: os.Getenv(keyBootstrap),
		CPath:     os.Getenv(keyCPath),
		Daemon:    os.Getenv(keyDaemon),
	}, nil
}

// ApplyToEnv copies the raw string settings (logger, logservice) that
// exist purely as environment lookups a bootstrap Module can GETENV,
// into the Engine's own env store, per spec.md §6's "read-through
// defaults" wording.
func ApplyToEnv(e *actor.Engine, extra map[string]string) {
	env := e.Env()
	for _, k := range []string{keyLogger, keyLogService} {
		if v := os.Getenv(k); v != "" {
			env.Set(k, v)
		}
	}
	for k, v := range extra {
		env.Set(k, v)
	}
}
