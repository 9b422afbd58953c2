//go:build darwin || freebsd || netbsd || openbsd

package socket

import "golang.org/x/sys/unix"

// kqueuePoller implements poller using kqueue(2), grounded on
// SeleniaProject-Orizon's kqueue_poller_bsd.go, adapted to register bare
// fds and to track each fd's requested filters so enableWrite can
// toggle EVFILT_WRITE independently of the read registration.
type kqueuePoller struct {
	kq   int
	read map[int]bool
}

func newPoller() (poller, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	return &kqueuePoller{kq: fd, read: make(map[int]bool)}, nil
}

func (p *kqueuePoller) add(fd int, write bool) error {
	changes := []unix.Kevent_t{
		{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_ADD | unix.EV_ENABLE},
	}
	if write {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_ADD | unix.EV_ENABLE})
	}
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	if err == nil {
		p.read[fd] = true
	}
	return err
}

func (p *kqueuePoller) enableWrite(fd int, on bool) error {
	flags := uint16(unix.EV_ADD | unix.EV_ENABLE)
	if !on {
		flags = unix.EV_DELETE
	}
	change := unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags}
	_, err := unix.Kevent(p.kq, []unix.Kevent_t{change}, nil, nil)
	if !on && err == unix.ENOENT {
		return nil
	}
	return err
}

func (p *kqueuePoller) remove(fd int) error {
	delRead := unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE}
	delWrite := unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE}
	_, err := unix.Kevent(p.kq, []unix.Kevent_t{delRead, delWrite}, nil, nil)
	delete(p.read, fd)
	return err
}

func (p *kqueuePoller) wait(out []readyEvent) (int, error) {
	raw := make([]unix.Kevent_t, len(out))
	ts := unix.NsecToTimespec(2500 * 1000 * 1000)
	n, err := unix.Kevent(p.kq, nil, raw, &ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		fd := int(raw[i].Ident)
		out[i] = readyEvent{
			fd:       fd,
			readable: raw[i].Filter == unix.EVFILT_READ,
			writable: raw[i].Filter == unix.EVFILT_WRITE,
			errored:  raw[i].Flags&unix.EV_ERROR != 0,
		}
	}
	return n, nil
}

func (p *kqueuePoller) close() error {
	return unix.Close(p.kq)
}
