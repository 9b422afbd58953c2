package socket

// readyEvent is one fd's readiness report from the platform poller,
// normalized across epoll/kqueue backends.
type readyEvent struct {
	fd       int
	readable bool
	writable bool
	errored  bool
}

// poller is the platform event instance of spec.md §4.9: "edge-or-
// level-triggered readiness for {read, write, error, eof}". Grounded on
// SeleniaProject-Orizon's internal/runtime/asyncio epoll/kqueue pollers,
// generalized from net.Conn registration to bare fd registration (this
// engine owns raw fds, not *net.TCPConn).
type poller interface {
	add(fd int, write bool) error
	enableWrite(fd int, on bool) error
	remove(fd int) error
	wait(events []readyEvent) (int, error)
	close() error
}
