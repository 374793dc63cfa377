//go:build linux

package benchmark

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

type kvServerHandle struct {
	listenFd int
	epollFd  int
	addr     string

	mu      sync.Mutex
	clients map[int]struct{}
}

type kvServerThread struct {
	tid    int
	events []unix.EpollEvent
	buf    []byte
}

// Init binds a non-blocking listener on host:<init size>. An init size of
// zero picks an ephemeral port.
func (KVServerTarget) Init(cfg TargetConfig) (Handle, error) {
	port := int(cfg.Workload.InitSize)
	if port > 65535 {
		return nil, fmt.Errorf("port %d out of range", port)
	}
	ip := net.IPv4zero.To4()
	if cfg.KVServer.Host != "" {
		ip = net.ParseIP(cfg.KVServer.Host).To4()
		if ip == nil {
			return nil, fmt.Errorf("invalid IPv4 host %q", cfg.KVServer.Host)
		}
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	h := &kvServerHandle{listenFd: fd, epollFd: -1, clients: map[int]struct{}{}}

	if err := h.listen(ip, port); err != nil {
		h.Destroy()
		return nil, err
	}
	return h, nil
}

func (h *kvServerHandle) listen(ip net.IP, port int) error {
	if err := unix.SetsockoptInt(h.listenFd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	sa := &unix.SockaddrInet4{Port: port}
	copy(sa.Addr[:], ip)
	if err := unix.Bind(h.listenFd, sa); err != nil {
		return fmt.Errorf("bind %s:%d: %w", ip, port, err)
	}
	if err := unix.Listen(h.listenFd, unix.SOMAXCONN); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	bound, err := unix.Getsockname(h.listenFd)
	if err != nil {
		return fmt.Errorf("getsockname: %w", err)
	}
	if in4, ok := bound.(*unix.SockaddrInet4); ok {
		port = in4.Port
	}
	h.addr = net.JoinHostPort(ip.String(), strconv.Itoa(port))

	h.epollFd, err = unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(h.listenFd)}
	if err := unix.EpollCtl(h.epollFd, unix.EPOLL_CTL_ADD, h.listenFd, &ev); err != nil {
		return fmt.Errorf("epoll_ctl add listener: %w", err)
	}
	return nil
}

func (h *kvServerHandle) RegisterThread(tid int) (ThreadContext, error) {
	return &kvServerThread{
		tid:    tid,
		events: make([]unix.EpollEvent, kvMaxEvents),
		buf:    make([]byte, kvMaxBufferLen),
	}, nil
}

// Dispatch waits up to kvPollTimeoutMs for readiness and serves every ready
// descriptor. Accepts, reads and replies each count as one attempt.
func (h *kvServerHandle) Dispatch(tc ThreadContext, _ int) OpResult {
	t := tc.(*kvServerThread)
	var res OpResult

	n, err := unix.EpollWait(h.epollFd, t.events, kvPollTimeoutMs)
	if err != nil || n <= 0 {
		return res
	}
	for _, ev := range t.events[:n] {
		fd := int(ev.Fd)
		if fd == h.listenFd {
			h.accept(&res)
			continue
		}

		count, err := unix.Read(fd, t.buf)
		res.Attempted++
		if errors.Is(err, unix.EAGAIN) {
			// another worker drained it first
			continue
		}
		if err != nil || count <= 0 {
			h.closeClient(fd)
			continue
		}
		res.Succeeded++

		res.Attempted++
		if written, err := unix.Write(fd, kvRespond(t.buf[:count])); err == nil && written > 0 {
			res.Succeeded++
		}
	}
	return res
}

func (h *kvServerHandle) accept(res *OpResult) {
	res.Attempted++
	fd, _, err := unix.Accept4(h.listenFd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(h.epollFd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		unix.Close(fd)
		return
	}
	h.mu.Lock()
	h.clients[fd] = struct{}{}
	h.mu.Unlock()
	res.Succeeded++
}

func (h *kvServerHandle) closeClient(fd int) {
	h.mu.Lock()
	_, ok := h.clients[fd]
	delete(h.clients, fd)
	h.mu.Unlock()
	if ok {
		unix.Close(fd)
	}
}

func (h *kvServerHandle) DeregisterThread(ThreadContext, int) {}

func (h *kvServerHandle) ExtraInfo() string { return "kv_addr=" + h.addr }

func (h *kvServerHandle) Destroy() error {
	h.mu.Lock()
	for fd := range h.clients {
		unix.Close(fd)
	}
	h.clients = map[int]struct{}{}
	h.mu.Unlock()

	var errs []error
	if h.epollFd >= 0 {
		errs = append(errs, unix.Close(h.epollFd))
		h.epollFd = -1
	}
	if h.listenFd >= 0 {
		errs = append(errs, unix.Close(h.listenFd))
		h.listenFd = -1
	}
	return errors.Join(errs...)
}
