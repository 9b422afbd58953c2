package actor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config holds the options NewEngine needs, built with the teacher's
// functional-options style (actor/opts.go's EngineConfig/OptFunc, here
// generalized from a single Remoter to the full set of boot parameters
// spec.md §6's environment names: thread, harbor, profile, logpath).
type Config struct {
	node       uint8
	threads    int
	weightFunc WeightFunc
	profile    bool
	logPath    string
}

// NewConfig returns the default Config: 4 worker threads, node id 1, the
// reference weight schedule, profiling off.
func NewConfig() Config {
	return Config{
		node:       1,
		threads:    4,
		weightFunc: DefaultWeightFunc,
		profile:    false,
	}
}

func (c Config) WithNode(n uint8) Config           { c.node = n; return c }
func (c Config) WithThreads(n int) Config          { c.threads = n; return c }
func (c Config) WithWeightFunc(f WeightFunc) Config { c.weightFunc = f; return c }
func (c Config) WithProfile(on bool) Config        { c.profile = on; return c }
func (c Config) WithLogPath(dir string) Config     { c.logPath = dir; return c }

// Engine is the runtime core: it wires together the registry, mailbox/
// global-queue pair, worker pool, timing wheel, stall monitor, harbor
// stub and the C12 sinks. Grounded on the teacher's Engine/EngineConfig
// wiring style (actor/engine.go NewEngine), generalized from "spawn one
// goroutine per actor" to the fixed worker pool spec.md §4.5 requires.
type Engine struct {
	cfg Config

	registry    *registry
	globalQueue *globalQueue
	wakeup      *wakeup
	env         *env
	wheel       *wheel
	loader      *loader
	harbor      *harbor
	errSink     *errSink

	metrics         *Metrics
	MetricsRegistry *prometheus.Registry

	workers []*worker
	workerWG sync.WaitGroup
	timer   *timerThread
	monitor *stallMonitor

	exitWatcher atomic.Uint32

	reservedMu sync.Mutex
	reserved   map[Handle]bool

	startTime   time.Time
	everSpawned atomic.Bool
	quit        atomic.Bool
}

// NewEngine builds and boots an Engine: starts the fixed worker pool,
// the timer thread and the stall monitor, per spec.md §5 "Threads".
func NewEngine(cfg Config) *Engine {
	if cfg.threads <= 0 {
		cfg.threads = 1
	}
	if cfg.weightFunc == nil {
		cfg.weightFunc = DefaultWeightFunc
	}

	metrics, reg := NewMetrics()

	e := &Engine{
		cfg:             cfg,
		registry:        newRegistry(cfg.node),
		globalQueue:     newGlobalQueue(),
		wakeup:          newWakeup(),
		env:             newEnv(),
		wheel:           newWheel(),
		loader:          newLoader(),
		harbor:          newHarbor(cfg.node),
		errSink:         newErrSink(),
		metrics:         metrics,
		MetricsRegistry: reg,
		reserved:        make(map[Handle]bool),
		startTime:       time.Now(),
	}
	e.globalQueue.notify = e.wakeup.signalOne

	samples := make([]*stallSample, cfg.threads)
	e.workers = make([]*worker, cfg.threads)
	for i := 0; i < cfg.threads; i++ {
		w := newWorker(i, cfg.weightFunc(i), e)
		e.workers[i] = w
		samples[i] = w.sample
	}
	e.monitor = newStallMonitor(samples, e.registry.grab, e.release, e.errSink, e.metrics)
	e.timer = newTimerThread(e.wheel, e.fireTimer, e.wakeup.signalOne)

	e.workerWG.Add(len(e.workers))
	for _, w := range e.workers {
		go func(w *worker) {
			runtime.LockOSThread()
			defer e.workerWG.Done()
			w.run()
		}(w)
	}
	go e.monitor.run()
	go e.timer.run()

	return e
}

// Env exposes the process-wide key/value store (GETENV/SETENV).
func (e *Engine) Env() (*env) { return e.env }

// Node returns this Engine's 8-bit node id (the high byte of every
// locally minted Handle).
func (e *Engine) Node() uint8 { return e.cfg.node }

// Metrics returns the Prometheus collectors wired to this Engine.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// RegisterModule installs a Module by name, per C5.
func (e *Engine) RegisterModule(mod *Module) { e.loader.Register(mod) }

// SetHarborDelegate installs the Service that outgoing remote envelopes
// are forwarded to, and excludes it from the shutdown liveness count
// (spec.md §4.5 "Reserved services... accounted separately").
func (e *Engine) SetHarborDelegate(h Handle) {
	e.harbor.SetDelegate(h)
	e.MarkReserved(h)
}

// MarkReserved excludes h from the shutdown liveness predicate.
func (e *Engine) MarkReserved(h Handle) {
	e.reservedMu.Lock()
	e.reserved[h] = true
	e.reservedMu.Unlock()
}

func (e *Engine) reservedLiveCount() int {
	e.reservedMu.Lock()
	defer e.reservedMu.Unlock()
	n := 0
	for h := range e.reserved {
		if svc := e.registry.grab(h); svc != nil {
			n++
			e.release(svc)
		} else {
			delete(e.reserved, h)
		}
	}
	return n
}

// Spawn implements the C5 service-creation sequence of spec.md §4.4.
func (e *Engine) Spawn(modName string, args string) (Handle, error) {
	mod, err := e.loader.query(modName)
	if err != nil {
		logEvent(ModuleLoadFailedEvent{Module: modName, Reason: err})
		return 0, err
	}

	inst := mod.Create()
	svc := &Service{
		module:  mod,
		inst:    inst,
		engine:  e,
		profile: e.cfg.profile,
		errSink: e.errSink,
		metrics: e.metrics,
	}

	h, err := e.registry.register(svc)
	if err != nil {
		return 0, err
	}
	svc.mailbox = newMailboxPinned(h, e.globalQueue)

	ctx := newContext(e)
	ctx.reset(svc, 0, 0, 0, nil)
	initErr := mod.Init(inst, ctx, args)

	if initErr != nil {
		if retired, ok := e.registry.retire(h); ok {
			e.release(retired)
		}
		svc.mailbox.drain(func(msg Message) { e.sendError(msg.Source, msg.Session) })
		logEvent(ModuleLoadFailedEvent{Module: modName, Reason: initErr})
		return 0, fmt.Errorf("%w: %v", ErrModuleInitFailed, initErr)
	}

	svc.initDone.Store(true)
	svc.mailbox.publish()
	e.everSpawned.Store(true)
	return h, nil
}

// retire retires h: clears its registry slot and drops the registry's
// baseline reference (spec.md §3). Actual storage is freed only once
// every outstanding grab has also released.
func (e *Engine) retire(h Handle) {
	svc, ok := e.registry.retire(h)
	if !ok {
		return
	}
	e.release(svc)
	logEvent(ServiceRetiredEvent{Handle: h})
	e.notifyWatcher(h)
}

func (e *Engine) notifyWatcher(h Handle) {
	watcher := Handle(e.exitWatcher.Load())
	if watcher.IsZero() {
		return
	}
	_ = e.sendLocal(0, watcher, PtypeSystem, 0, []byte("EXIT "+h.String()))
}

// release drops one reference on svc, draining its mailbox with the
// error-drop policy if this was the final reference (spec.md §3).
func (e *Engine) release(svc *Service) {
	svc.release(e.dropMailboxMessages)
}

// Command runs a control-plane verb as self, the entry point bootstrap
// code outside any Service's dispatch uses to drive LAUNCH and friends
// before a first Service exists to hold a live Context (spec.md §4.7).
func (e *Engine) Command(self Handle, verb, arg string) (string, bool) {
	return e.command(self, verb, arg)
}

// Instance returns the Module-defined value backing h, chiefly useful
// from tests that want to inspect a spawned service's exported state
// without routing everything through a message round trip.
func (e *Engine) Instance(h Handle) (any, bool) {
	svc := e.registry.grab(h)
	if svc == nil {
		return nil, false
	}
	defer e.release(svc)
	return svc.inst, true
}

// dropMailbox is called by a worker when grab fails for a mailbox it
// popped off the global queue (the Service was already fully retired):
// drain it with the same drop policy.
func (e *Engine) dropMailbox(m *mailbox) {
	e.dropMailboxMessages(m)
}

func (e *Engine) dropMailboxMessages(m *mailbox) {
	m.drain(func(msg Message) {
		e.sendError(msg.Source, msg.Session)
	})
}

// sendFrom delivers one message on behalf of source, implementing
// spec.md §4.11's local/remote classification and §7's error taxonomy.
func (e *Engine) sendFrom(source, dest Handle, mtype uint8, session int32, payload []byte) error {
	if err := checkPayloadSize(payload); err != nil {
		return err
	}
	if dest == 0 {
		e.sendError(source, session)
		return nil
	}
	if !e.harbor.isLocal(dest) {
		delegate, ok := e.harbor.Delegate()
		if !ok {
			e.sendError(source, session)
			return nil
		}
		envelope := EncodeHarborEnvelope(HarborEnvelope{
			Destination: dest, Source: source, Session: session, Type: mtype, Payload: payload,
		})
		return e.sendLocal(source, delegate, PtypeHarbor, 0, envelope)
	}
	return e.sendLocal(source, dest, mtype, session, payload)
}

// DeliverLocal injects an unsolicited message (source and session both
// zero, matching skynet's own socket-message convention) into dest's
// mailbox from outside any dispatch. A Module that owns a background
// thread of its own (the `socket` I/O engine's owner-delivery callback is
// the only caller so far) uses this instead of Context.Send, which is
// only valid for the duration of one dispatch on the calling goroutine.
func (e *Engine) DeliverLocal(dest Handle, mtype uint8, payload []byte) error {
	if err := checkPayloadSize(payload); err != nil {
		return err
	}
	return e.sendLocal(0, dest, mtype, 0, payload)
}

// DeliverRemote injects a HarborEnvelope that arrived over the wire from
// another node straight into its Destination's mailbox, skipping the
// local/remote classification sendFrom already performed on the
// originating node (spec.md §4.11). The `remote` package's delegate
// Service calls this from its inbound read loop.
func (e *Engine) DeliverRemote(env HarborEnvelope) error {
	if err := checkPayloadSize(env.Payload); err != nil {
		return err
	}
	return e.sendLocal(env.Source, env.Destination, env.Type, env.Session, env.Payload)
}

func (e *Engine) sendLocal(source, dest Handle, mtype uint8, session int32, payload []byte) error {
	svc := e.registry.grab(dest)
	if svc == nil {
		e.sendError(source, session)
		return nil
	}
	svc.mailbox.push(Message{Source: source, Session: session, Type: mtype, Payload: payload})
	e.release(svc)
	return nil
}

// sendError best-effort delivers a PTYPE_ERROR back to source, per
// spec.md §7 InvalidHandle: "the sender receives a synthesized
// PTYPE_ERROR with the original session; no payload".
func (e *Engine) sendError(source Handle, session int32) {
	if source == 0 {
		return
	}
	svc := e.registry.grab(source)
	if svc == nil {
		return
	}
	svc.mailbox.push(Message{Source: 0, Session: session, Type: PtypeError})
	e.release(svc)
}

// fireTimer is the timer thread's callback: it turns one fired
// TimerNode into a PTYPE_RESPONSE message (spec.md §4.8 step 4).
func (e *Engine) fireTimer(target Handle, session int32) {
	_ = e.sendLocal(0, target, PtypeResponse, session, nil)
}

// openServiceLog opens the per-service message log file for the
// LOGON control verb, under cfg.logPath (falling back to a null
// writer if no log path was configured, keeping LOGON a no-op sink
// rather than an error).
func (e *Engine) openServiceLog(h Handle) (io.WriteCloser, error) {
	if e.cfg.logPath == "" {
		return nopWriteCloser{}, nil
	}
	path := filepath.Join(e.cfg.logPath, h.String()[1:]+".log")
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

type nopWriteCloser struct{}

func (nopWriteCloser) Write(p []byte) (int, error) { return len(p), nil }
func (nopWriteCloser) Close() error                { return nil }

// quitting reports whether the shutdown predicate of spec.md §4.5 holds:
// at least one service was ever spawned, the count of live, non-reserved
// services has since dropped to zero, AND the timer wheel has no
// outstanding timers that could still wake a new service into existence.
// The everSpawned guard keeps the pool alive through boot, before the
// caller has had a chance to Spawn anything yet.
func (e *Engine) quitting() bool {
	if e.quit.Load() {
		return true
	}
	return e.everSpawned.Load() &&
		e.registry.liveCount()-e.reservedLiveCount() == 0 &&
		e.wheel.pendingCount() == 0
}

// Stop broadcasts shutdown, waits for every worker, and stops the
// timer and monitor threads (spec.md §5 Shutdown).
func (e *Engine) Stop() {
	e.quit.Store(true)
	e.wakeup.broadcast()
	e.workerWG.Wait()
	e.timer.Stop()
	e.monitor.Stop()
}
