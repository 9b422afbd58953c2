package actor

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the core's internal counters as Prometheus
// instruments (SPEC_FULL.md §3): dispatch throughput, CPU cost,
// mailbox overload events and stall detections. Wired fresh here since
// no pack repo exercises client_golang otherwise; cmd/skynetd serves
// these on /metrics.
type Metrics struct {
	Dispatched      prometheus.Counter
	CPUCostSeconds  prometheus.Counter
	MailboxOverload prometheus.Counter
	StallDetected   prometheus.Counter
	SocketBytesRead prometheus.Counter
	SocketBytesSent prometheus.Counter
}

// NewMetrics registers a fresh set of collectors on a private registry
// (rather than prometheus.DefaultRegisterer) so multiple Engines, as
// spawned by tests, never collide on collector names.
func NewMetrics() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skynet_dispatched_messages_total",
			Help: "Total number of messages dispatched to service handlers.",
		}),
		CPUCostSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skynet_dispatch_cpu_seconds_total",
			Help: "Cumulative handler CPU time, when profiling is enabled.",
		}),
		MailboxOverload: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skynet_mailbox_overload_total",
			Help: "Number of times a mailbox's length crossed its overload threshold.",
		}),
		StallDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skynet_worker_stall_total",
			Help: "Number of times the stall monitor marked a service endless.",
		}),
		SocketBytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skynet_socket_bytes_read_total",
			Help: "Total bytes read across all sockets.",
		}),
		SocketBytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skynet_socket_bytes_sent_total",
			Help: "Total bytes written across all sockets.",
		}),
	}
	reg.MustRegister(m.Dispatched, m.CPUCostSeconds, m.MailboxOverload, m.StallDetected, m.SocketBytesRead, m.SocketBytesSent)
	return m, reg
}

// AddRead and AddWrite satisfy socket.ByteCounters structurally, so a
// gate service can hand its actor.Metrics straight to socket.NewEngine
// without this package importing socket.
func (m *Metrics) AddRead(n int)  { m.SocketBytesRead.Add(float64(n)) }
func (m *Metrics) AddWrite(n int) { m.SocketBytesSent.Add(float64(n)) }
