//go:build linux

package socket

import "golang.org/x/sys/unix"

// epollPoller implements poller using epoll(7), grounded on
// SeleniaProject-Orizon's epoll_poller_linux.go (EpollCreate1/EpollCtl/
// EpollWait), adapted to register bare fds instead of net.Conn.
type epollPoller struct {
	epfd int
}

func newPoller() (poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{epfd: fd}, nil
}

func (p *epollPoller) eventMask(write bool) uint32 {
	m := uint32(unix.EPOLLIN)
	if write {
		m |= uint32(unix.EPOLLOUT)
	}
	return m
}

func (p *epollPoller) add(fd int, write bool) error {
	ev := unix.EpollEvent{Fd: int32(fd), Events: p.eventMask(write)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *epollPoller) enableWrite(fd int, on bool) error {
	ev := unix.EpollEvent{Fd: int32(fd), Events: p.eventMask(on)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (p *epollPoller) remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) wait(out []readyEvent) (int, error) {
	raw := make([]unix.EpollEvent, len(out))
	n, err := unix.EpollWait(p.epfd, raw, 2500)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		out[i] = readyEvent{
			fd:       int(raw[i].Fd),
			readable: raw[i].Events&unix.EPOLLIN != 0,
			writable: raw[i].Events&unix.EPOLLOUT != 0,
			errored:  raw[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0,
		}
	}
	return n, nil
}

func (p *epollPoller) close() error {
	return unix.Close(p.epfd)
}
