// Package socket implements the non-blocking I/O engine of spec.md
// §4.9 (C9): a single I/O thread owning a platform event instance
// (epoll on linux, kqueue on the BSDs/darwin), a fixed socket slot
// array, and a control pipe that workers use to hand off requests.
package socket

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

var (
	ErrInvalidSocket = errors.New("socket: invalid id")
	ErrTooManySockets = errors.New("socket: slot array exhausted")
	ErrDatagramTooLarge = errors.New("socket: udp datagram exceeds 65535 bytes")
)

// ByteCounters lets a caller (typically the actor engine's Prometheus
// wiring) observe bytes moved without this package depending on
// actor/metrics.go.
type ByteCounters interface {
	AddRead(n int)
	AddWrite(n int)
}

// Engine is the I/O thread. Exactly one exists per process, per
// spec.md §5 "Threads": "exactly one I/O thread".
type Engine struct {
	poller  poller
	handler EventHandler
	metrics ByteCounters

	slots     [maxSockets]*socket
	idCounter atomic.Uint32
	fds       map[int]*socket // I/O-thread-owned; never touched off-thread

	reqMu  sync.Mutex
	reqBuf []request
	wakeR  int
	wakeW  int

	reserveFd int

	stop atomic.Bool
	done chan struct{}
}

// NewEngine builds the I/O thread's poller and control pipe but does
// not start it; call Run in its own goroutine.
func NewEngine(handler EventHandler, metrics ByteCounters) (*Engine, error) {
	p, err := newPoller()
	if err != nil {
		return nil, err
	}
	fds, err := unixPipe()
	if err != nil {
		p.close()
		return nil, err
	}
	reserve, err := unix.Open("/dev/null", unix.O_RDONLY, 0)
	if err != nil {
		reserve = -1
	}
	e := &Engine{
		poller:    p,
		handler:   handler,
		metrics:   metrics,
		fds:       make(map[int]*socket),
		wakeR:     fds[0],
		wakeW:     fds[1],
		reserveFd: reserve,
		done:      make(chan struct{}),
	}
	if err := p.add(e.wakeR, false); err != nil {
		return nil, err
	}
	return e, nil
}

func unixPipe() ([2]int, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return fds, err
	}
	return fds, nil
}

func (e *Engine) emit(ev Event) {
	if e.handler != nil {
		e.handler(ev)
	}
}

// allocID implements spec.md §4.9's ID allocation: an atomic counter
// masked to 31 bits, CAS-claiming the first Invalid slot found.
func (e *Engine) allocID() (uint32, *socket, error) {
	for attempts := 0; attempts < maxSockets; attempts++ {
		id := e.idCounter.Add(1) & 0x7fffffff
		idx := id % maxSockets
		slot := e.slots[idx]
		if slot == nil {
			slot = &socket{}
			slot.setState(StateInvalid)
			e.slots[idx] = slot
		}
		if slot.casState(StateInvalid, StateReserved) {
			slot.reset(id)
			return id, slot, nil
		}
	}
	return 0, nil, ErrTooManySockets
}

func (e *Engine) lookup(id uint32) *socket {
	idx := id % maxSockets
	s := e.slots[idx]
	if s == nil || s.id != id || s.state() == StateInvalid {
		return nil
	}
	return s
}

func (e *Engine) enqueue(r request) {
	e.reqMu.Lock()
	e.reqBuf = append(e.reqBuf, r)
	e.reqMu.Unlock()
	var b [1]byte
	unix.Write(e.wakeW, b[:])
}

func (e *Engine) drainRequests() []request {
	e.reqMu.Lock()
	reqs := e.reqBuf
	e.reqBuf = nil
	e.reqMu.Unlock()
	return reqs
}

// Listen allocates a socket, binds and listens on host:port (port 0
// picks an ephemeral port, reported back as boundPort), and leaves it
// in state PreListen (spec.md §4.9 "L installs a listening fd in
// state PreListen"). Call Start to promote it to Listen.
func (e *Engine) Listen(owner uint32, host string, port int) (id uint32, boundPort int, err error) {
	id, s, err := e.allocID()
	if err != nil {
		return 0, 0, err
	}
	s.owner = owner
	fd, err := bindListen(host, port)
	if err != nil {
		s.setState(StateInvalid)
		return 0, 0, err
	}
	boundPort, err = localPort(fd)
	if err != nil {
		unix.Close(fd)
		s.setState(StateInvalid)
		return 0, 0, err
	}
	s.fd = fd
	s.protocol = ProtoTCP
	s.setState(StatePreListen)
	e.enqueue(request{tag: reqListen, id: id})
	return id, boundPort, nil
}

func localPort(fd int) (int, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return 0, err
	}
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return a.Port, nil
	case *unix.SockaddrInet6:
		return a.Port, nil
	default:
		return 0, fmt.Errorf("socket: unsupported sockaddr %T", sa)
	}
}

func bindListen(host string, port int) (int, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return -1, err
	}
	domain := unix.AF_INET
	if tcpAddr.IP.To4() == nil {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, err
	}
	unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	if sa, err := sockaddrTCP(tcpAddr); err == nil {
		if err := unix.Bind(fd, sa); err != nil {
			unix.Close(fd)
			return -1, err
		}
	} else {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, 256); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func sockaddrTCP(addr *net.TCPAddr) (unix.Sockaddr, error) {
	if ip4 := addr.IP.To4(); ip4 != nil {
		var sa unix.SockaddrInet4
		sa.Port = addr.Port
		copy(sa.Addr[:], ip4)
		return &sa, nil
	}
	ip6 := addr.IP.To16()
	if ip6 == nil {
		return nil, fmt.Errorf("socket: invalid address %v", addr)
	}
	var sa unix.SockaddrInet6
	sa.Port = addr.Port
	copy(sa.Addr[:], ip6)
	return &sa, nil
}

// Connect allocates a socket and asynchronously connects it, per
// spec.md §4.9's Connect flow. The result arrives later as a KindOpen
// or KindError event.
func (e *Engine) Connect(owner uint32, host string, port int) (uint32, error) {
	id, s, err := e.allocID()
	if err != nil {
		return 0, err
	}
	s.owner = owner
	e.enqueue(request{tag: reqOpen, id: id, host: host, port: port})
	return id, nil
}

// Start promotes PreListen->Listen or PreAccept->Connected, enabling
// read readiness (spec.md §4.9: "R moves it to Listen (enables
// read)" / "the application must later send R to promote
// PreAccept -> Connected").
func (e *Engine) Start(id uint32, owner uint32) error {
	s := e.lookup(id)
	if s == nil {
		return ErrInvalidSocket
	}
	e.enqueue(request{tag: reqResume, id: id, owner: owner})
	return nil
}

// Pause disables read readiness without closing the socket.
func (e *Engine) Pause(id uint32) error {
	if e.lookup(id) == nil {
		return ErrInvalidSocket
	}
	e.enqueue(request{tag: reqPause, id: id})
	return nil
}

// Close issues the 'K' request of spec.md §4.9 Close semantics.
func (e *Engine) Close(id uint32, shutdown bool) error {
	if e.lookup(id) == nil {
		return ErrInvalidSocket
	}
	e.enqueue(request{tag: reqKill, id: id, shutdown: shutdown})
	return nil
}

// SetUDPPeer installs a UDP socket's "current peer" address.
func (e *Engine) SetUDPPeer(id uint32, addr []byte) error {
	if e.lookup(id) == nil {
		return ErrInvalidSocket
	}
	e.enqueue(request{tag: reqSetUDP, id: id, udpAddress: addr})
	return nil
}

// CreateUDP opens a UDP socket bound to host:port (host may be empty
// for an ephemeral client socket) without connecting it.
func (e *Engine) CreateUDP(owner uint32, host string, port int, v6 bool) (uint32, error) {
	id, s, err := e.allocID()
	if err != nil {
		return 0, err
	}
	domain := unix.AF_INET
	proto := ProtoUDP4
	if v6 {
		domain = unix.AF_INET6
		proto = ProtoUDP6
	}
	fd, err := unix.Socket(domain, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		s.setState(StateInvalid)
		return 0, err
	}
	if host != "" || port != 0 {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		udpAddr, err := net.ResolveUDPAddr("udp", addr)
		if err == nil {
			if sa, err := sockaddrUDP(udpAddr); err == nil {
				unix.Bind(fd, sa)
			}
		}
	}
	s.owner = owner
	s.fd = fd
	s.protocol = proto
	s.setState(StateConnected)
	e.enqueue(request{tag: reqResume, id: id, owner: owner})
	return id, nil
}

func sockaddrUDP(addr *net.UDPAddr) (unix.Sockaddr, error) {
	if ip4 := addr.IP.To4(); ip4 != nil {
		var sa unix.SockaddrInet4
		sa.Port = addr.Port
		copy(sa.Addr[:], ip4)
		return &sa, nil
	}
	ip6 := addr.IP.To16()
	if ip6 == nil {
		return nil, fmt.Errorf("socket: invalid udp address %v", addr)
	}
	var sa unix.SockaddrInet6
	sa.Port = addr.Port
	copy(sa.Addr[:], ip6)
	return &sa, nil
}

// Send implements the send policy of spec.md §4.9: an idle, Connected
// socket is written to directly from the calling goroutine; otherwise
// the buffer is cloned and handed to the I/O thread as a high-priority
// unit.
func (e *Engine) Send(id uint32, payload []byte) error {
	return e.send(id, payload, nil, reqData)
}

// SendLow is Send's low-priority counterpart ('P' in spec.md §4.9).
func (e *Engine) SendLow(id uint32, payload []byte) error {
	return e.send(id, payload, nil, reqPush)
}

// SendUDP sends a datagram, optionally overriding the socket's current
// peer for this call only.
func (e *Engine) SendUDP(id uint32, payload []byte, addr []byte) error {
	if len(payload) > maxUDPDatagram {
		return ErrDatagramTooLarge
	}
	return e.send(id, payload, addr, reqUDPTo)
}

func (e *Engine) send(id uint32, payload []byte, udpAddr []byte, fallback requestTag) error {
	s := e.lookup(id)
	if s == nil {
		return ErrInvalidSocket
	}
	if s.protocol == ProtoTCP && s.lock.TryLock() {
		if len(s.high) == 0 && len(s.low) == 0 && s.wb == nil && s.state() == StateConnected {
			n, werr := writeDirect(s.fd, payload)
			if werr == nil && n == len(payload) {
				s.bytesWritten += uint64(n)
				s.lock.Unlock()
				if e.metrics != nil {
					e.metrics.AddWrite(n)
				}
				return nil
			}
			if werr != nil && werr != unix.EAGAIN {
				s.lock.Unlock()
				e.enqueue(request{tag: reqKill, id: id, shutdown: true})
				e.emit(Event{Owner: s.owner, ID: id, Kind: KindError, Addr: werr.Error()})
				return nil
			}
			remainder := append([]byte(nil), payload[n:]...)
			s.wb = &writeBuffer{data: remainder}
			s.wbSize += len(remainder)
			s.lock.Unlock()
			e.enqueue(request{tag: reqWrite, id: id})
			return nil
		}
		s.lock.Unlock()
	}
	buf := append([]byte(nil), payload...)
	e.enqueue(request{tag: fallback, id: id, payload: buf, udpAddress: udpAddr})
	return nil
}

func writeDirect(fd int, buf []byte) (int, error) {
	n, err := unix.Write(fd, buf)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, unix.EAGAIN
		}
		return 0, err
	}
	return n, nil
}

// Run is the I/O thread's loop. It returns once Stop has been called
// and the pipe's eXit request has been processed.
func (e *Engine) Run() {
	defer close(e.done)
	events := make([]readyEvent, 256)
	for {
		for _, r := range e.drainRequests() {
			e.handleRequest(r)
		}
		if e.stop.Load() {
			return
		}
		n, err := e.poller.wait(events)
		if err != nil {
			return
		}
		for i := 0; i < n; i++ {
			ev := events[i]
			if ev.fd == e.wakeR {
				e.drainWakePipe()
				continue
			}
			s := e.fds[ev.fd]
			if s == nil {
				continue
			}
			if ev.errored {
				e.socketError(s, "poll error")
				continue
			}
			if ev.writable {
				e.handleWritable(s)
			}
			if ev.readable {
				e.handleReadable(s)
			}
		}
	}
}

func (e *Engine) drainWakePipe() {
	var buf [64]byte
	for {
		n, err := unix.Read(e.wakeR, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// Stop requests the I/O thread to exit and waits for it to do so.
func (e *Engine) Stop() {
	e.stop.Store(true)
	e.enqueue(request{tag: reqExit})
	<-e.done
	e.poller.close()
	unix.Close(e.wakeR)
	unix.Close(e.wakeW)
	if e.reserveFd >= 0 {
		unix.Close(e.reserveFd)
	}
}

func (e *Engine) handleRequest(r request) {
	switch r.tag {
	case reqExit:
		return
	case reqListen:
		e.doRegisterListen(r.id)
	case reqOpen:
		e.doConnect(r.id, r.host, r.port)
	case reqResume:
		e.doResume(r.id, r.owner)
	case reqPause:
		if s := e.lookup(r.id); s != nil {
			s.paused = true
		}
	case reqKill:
		e.doClose(r.id, r.shutdown)
	case reqWrite:
		if s := e.lookup(r.id); s != nil {
			e.enableWritable(s)
		}
	case reqData:
		e.doEnqueueSend(r.id, r.payload, nil, true)
	case reqPush:
		e.doEnqueueSend(r.id, r.payload, nil, false)
	case reqUDPTo:
		e.doEnqueueSend(r.id, r.payload, r.udpAddress, false)
	case reqSetUDP:
		if s := e.lookup(r.id); s != nil {
			s.udpPeer = r.udpAddress
		}
	}
}

func (e *Engine) doRegisterListen(id uint32) {
	s := e.lookup(id)
	if s == nil {
		return
	}
	e.fds[s.fd] = s
}

func (e *Engine) doResume(id uint32, owner uint32) {
	s := e.lookup(id)
	if s == nil {
		return
	}
	if owner != 0 {
		s.owner = owner
	}
	s.paused = false
	switch s.state() {
	case StatePreListen:
		s.setState(StateListen)
		e.poller.add(s.fd, false)
	case StatePreAccept:
		s.setState(StateConnected)
		e.poller.add(s.fd, false)
	case StateConnected, StateHalfCloseWrite:
		if _, ok := e.fds[s.fd]; !ok {
			e.poller.add(s.fd, false)
		}
	}
	e.fds[s.fd] = s
}

func (e *Engine) doConnect(id uint32, host string, port int) {
	s := e.lookup(id)
	if s == nil {
		return
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		s.setState(StateInvalid)
		e.emit(Event{Owner: s.owner, ID: id, Kind: KindError, Addr: err.Error()})
		return
	}
	domain := unix.AF_INET
	if tcpAddr.IP.To4() == nil {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		s.setState(StateInvalid)
		e.emit(Event{Owner: s.owner, ID: id, Kind: KindError, Addr: err.Error()})
		return
	}
	unix.SetsockoptInt(fd, unix.SOL_TCP, unix.TCP_NODELAY, 1)
	unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1)
	s.fd = fd
	sa, err := sockaddrTCP(tcpAddr)
	if err != nil {
		s.setState(StateInvalid)
		unix.Close(fd)
		e.emit(Event{Owner: s.owner, ID: id, Kind: KindError, Addr: err.Error()})
		return
	}
	err = unix.Connect(fd, sa)
	if err == nil || err == unix.EISCONN {
		s.setState(StateConnected)
		e.fds[fd] = s
		e.poller.add(fd, false)
		e.emit(Event{Owner: s.owner, ID: id, Kind: KindOpen, Addr: addr})
		return
	}
	if err == unix.EINPROGRESS {
		s.setState(StateConnecting)
		e.fds[fd] = s
		e.poller.add(fd, true)
		s.writing = true
		return
	}
	s.setState(StateInvalid)
	unix.Close(fd)
	e.emit(Event{Owner: s.owner, ID: id, Kind: KindError, Addr: err.Error()})
}

func (e *Engine) handleWritable(s *socket) {
	if s.state() == StateConnecting {
		errno, _ := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
		if errno != 0 {
			e.socketError(s, unix.Errno(errno).Error())
			return
		}
		s.setState(StateConnected)
		e.poller.enableWrite(s.fd, false)
		s.writing = false
		e.emit(Event{Owner: s.owner, ID: s.id, Kind: KindOpen})
		return
	}
	e.flush(s)
}

// flush implements spec.md §4.9's writable-readiness handling: drain
// the direct-write buffer, then high, then one unit of low (promoting
// a partial low send into high to avoid head-of-line blocking between
// priority bands).
func (e *Engine) flush(s *socket) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.wb != nil {
		if !e.writeUnit(s, s.wb) {
			return
		}
		s.wb = nil
	}
	for len(s.high) > 0 {
		if !e.writeUnit(s, s.high[0]) {
			return
		}
		s.high = s.high[1:]
	}
	if len(s.high) == 0 && len(s.low) > 0 {
		unit := s.low[0]
		s.low = s.low[1:]
		if !e.writeUnit(s, unit) {
			s.high = append([]*writeBuffer{unit}, s.high...)
			return
		}
	}
	if len(s.high) == 0 && len(s.low) == 0 && s.wb == nil {
		if s.writing {
			e.poller.enableWrite(s.fd, false)
			s.writing = false
		}
		if s.closeRequested {
			e.forceClose(s)
			return
		}
	}
}

// writeUnit attempts to fully drain unit into s.fd (UDP units use
// sendto to unit.udpAddress or the socket's current peer). It returns
// false if the unit did not fully drain (EAGAIN, staged back onto the
// caller's list) or the socket errored (closed).
func (e *Engine) writeUnit(s *socket, unit *writeBuffer) bool {
	var n int
	var err error
	if s.protocol == ProtoTCP {
		n, err = unix.Write(s.fd, unit.remaining())
	} else {
		addr := unit.udpAddress
		if addr == nil {
			addr = s.udpPeer
		}
		n, err = sendUDP(s.fd, unit.remaining(), addr)
	}
	if err != nil {
		if err == unix.EAGAIN {
			return false
		}
		e.socketError(s, err.Error())
		return false
	}
	s.bytesWritten += uint64(n)
	s.wbSize -= n
	if e.metrics != nil {
		e.metrics.AddWrite(n)
	}
	unit.offset += n
	if !unit.done() {
		if unit != s.wb {
			s.wb = unit
		}
		return false
	}
	if unit == s.wb {
		s.wb = nil
	}
	return true
}

func sendUDP(fd int, buf []byte, addr []byte) (int, error) {
	if len(addr) == 0 {
		return unix.Write(fd, buf)
	}
	udpAddr, _, err := DecodeUDPAddress(addr)
	if err != nil {
		return 0, err
	}
	sa, err := sockaddrUDP(udpAddr)
	if err != nil {
		return 0, err
	}
	if err := unix.Sendto(fd, buf, 0, sa); err != nil {
		return 0, err
	}
	return len(buf), nil
}

func (e *Engine) enableWritable(s *socket) {
	if s.writing {
		return
	}
	s.writing = true
	e.poller.enableWrite(s.fd, true)
}

func (e *Engine) doEnqueueSend(id uint32, payload []byte, udpAddr []byte, highPriority bool) {
	s := e.lookup(id)
	if s == nil {
		return
	}
	unit := &writeBuffer{data: payload, udpAddress: udpAddr}
	s.lock.Lock()
	if highPriority || s.protocol != ProtoTCP {
		s.high = append(s.high, unit)
	} else {
		s.low = append(s.low, unit)
	}
	s.wbSize += len(payload)
	crossed := s.wbSize >= watermarkStart && (s.warnSize == 0 || s.wbSize >= s.warnSize)
	var warnKiB int
	if crossed {
		if s.warnSize == 0 {
			s.warnSize = watermarkStart * 2
		} else {
			s.warnSize *= 2
		}
		warnKiB = (s.wbSize + 1023) / 1024
	}
	s.lock.Unlock()

	e.enableWritable(s)
	if crossed {
		e.emit(Event{Owner: s.owner, ID: id, Kind: KindWarning, WarnKiB: warnKiB})
	}
}

func (e *Engine) handleReadable(s *socket) {
	if s.paused {
		return
	}
	switch s.state() {
	case StateListen:
		e.doAccept(s)
	case StateConnected, StateHalfCloseWrite:
		if s.protocol == ProtoTCP {
			e.doReadTCP(s)
		} else {
			e.doReadUDP(s)
		}
	}
}

func (e *Engine) doAccept(listener *socket) {
	for {
		fd, sa, err := unix.Accept4(listener.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if err == unix.EMFILE || err == unix.ENFILE {
				e.drainOneWithReserve(listener.fd)
				return
			}
			if err == unix.EAGAIN {
				return
			}
			return
		}
		id, s, allocErr := e.allocID()
		if allocErr != nil {
			unix.Close(fd)
			continue
		}
		s.owner = listener.owner
		s.fd = fd
		s.protocol = ProtoTCP
		s.setState(StatePreAccept)
		e.emit(Event{Owner: listener.owner, ID: id, Kind: KindAccept, Addr: peerAddrString(sa)})
	}
}

func (e *Engine) drainOneWithReserve(listenFd int) {
	if e.reserveFd >= 0 {
		unix.Close(e.reserveFd)
		e.reserveFd = -1
	}
	if fd, _, err := unix.Accept4(listenFd, unix.SOCK_CLOEXEC); err == nil {
		unix.Close(fd)
	}
	if fd, err := unix.Open("/dev/null", unix.O_RDONLY, 0); err == nil {
		e.reserveFd = fd
	}
}

func peerAddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	default:
		return ""
	}
}

// doReadTCP implements spec.md §4.9 Receive: a dynamic read hint that
// doubles on a full read and halves on a sub-quarter read.
func (e *Engine) doReadTCP(s *socket) {
	buf := make([]byte, s.readHint)
	n, err := unix.Read(s.fd, buf)
	if err != nil {
		if err == unix.EAGAIN {
			return
		}
		e.socketError(s, err.Error())
		return
	}
	if n == 0 {
		e.eof(s)
		return
	}
	s.bytesRead += uint64(n)
	s.lastActivity = time.Now()
	if e.metrics != nil {
		e.metrics.AddRead(n)
	}
	if n == len(buf) {
		s.readHint *= 2
	} else if n < len(buf)/4 && s.readHint > minReadBuffer {
		s.readHint /= 2
		if s.readHint < minReadBuffer {
			s.readHint = minReadBuffer
		}
	}
	e.emit(Event{Owner: s.owner, ID: s.id, Kind: KindData, Data: buf[:n]})
}

func (e *Engine) doReadUDP(s *socket) {
	buf := make([]byte, maxUDPDatagram)
	n, from, err := unix.Recvfrom(s.fd, buf, 0)
	if err != nil {
		if err == unix.EAGAIN {
			return
		}
		e.socketError(s, err.Error())
		return
	}
	s.bytesRead += uint64(n)
	if e.metrics != nil {
		e.metrics.AddRead(n)
	}
	var addrBytes []byte
	switch a := from.(type) {
	case *unix.SockaddrInet4:
		addrBytes = EncodeUDPAddress(&net.UDPAddr{IP: net.IP(a.Addr[:]), Port: a.Port})
	case *unix.SockaddrInet6:
		addrBytes = EncodeUDPAddress(&net.UDPAddr{IP: net.IP(a.Addr[:]), Port: a.Port})
	}
	payload := append(append([]byte(nil), buf[:n]...), addrBytes...)
	e.emit(Event{Owner: s.owner, ID: s.id, Kind: KindUDP, Data: payload})
}

// eof handles read()==0, spec.md §4.9 Receive: force-close if a
// graceful close was requested and no data remains pending, otherwise
// transition to HalfCloseRead and emit SOCKET_CLOSE once.
func (e *Engine) eof(s *socket) {
	if s.closeRequested && s.wbSize == 0 {
		e.forceClose(s)
		return
	}
	if s.state() != StateHalfCloseRead {
		s.setState(StateHalfCloseRead)
	}
	e.emitCloseOnce(s)
}

func (e *Engine) emitCloseOnce(s *socket) {
	if s.closeSent {
		return
	}
	s.closeSent = true
	e.emit(Event{Owner: s.owner, ID: s.id, Kind: KindClose})
}

func (e *Engine) socketError(s *socket, msg string) {
	e.emit(Event{Owner: s.owner, ID: s.id, Kind: KindError, Addr: msg})
	e.forceClose(s)
}

// doClose implements spec.md §4.9 Close semantics.
func (e *Engine) doClose(id uint32, shutdown bool) {
	s := e.lookup(id)
	if s == nil {
		return
	}
	if shutdown {
		s.forceClose = true
		e.forceClose(s)
		return
	}
	s.closeRequested = true
	unix.Shutdown(s.fd, unix.SHUT_RD)
	s.setState(StateHalfCloseRead)
	e.emitCloseOnce(s)
	if s.wbSize == 0 {
		e.forceClose(s)
	}
}

func (e *Engine) forceClose(s *socket) {
	if s.state() == StateInvalid {
		return
	}
	e.emitCloseOnce(s)
	delete(e.fds, s.fd)
	if s.fd >= 0 {
		e.poller.remove(s.fd)
		unix.Close(s.fd)
	}
	s.setState(StateInvalid)
}
