package httpx

import (
	"errors"
	"net"
	"os"
	"runtime"
	"strconv"
	"syscall"
)

const maxPortRollAttempts = 42

type Listener struct {
	net.Listener
}

// NewListener listens on the address, with rollPorts it tries
// next ports when the given one is busy.
func NewListener(address string, rollPorts bool) (*Listener, error) {
	ls, err := net.Listen("tcp", address)
	if err == nil {
		return &Listener{ls}, nil
	}
	if !rollPorts || !isErrorAddressAlreadyInUse(err) {
		return nil, err
	}
	host, p, err2 := net.SplitHostPort(address)
	if err2 != nil {
		return nil, err
	}
	port, err2 := strconv.Atoi(p)
	if err2 != nil {
		return nil, err
	}
	for i := port + 1; i < port+maxPortRollAttempts; i++ {
		if ls, err = net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(i))); err == nil {
			return &Listener{ls}, nil
		}
	}
	return nil, err
}

func (l Listener) GetPort() int {
	if tcp, ok := l.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

func isErrorAddressAlreadyInUse(err error) bool {
	var eOsSyscall *os.SyscallError
	if !errors.As(err, &eOsSyscall) {
		return false
	}
	var errErrno syscall.Errno
	if !errors.As(eOsSyscall, &errErrno) {
		return false
	}
	if errErrno == syscall.EADDRINUSE {
		return true
	}
	const WSAEADDRINUSE = 10048
	return runtime.GOOS == "windows" && errErrno == WSAEADDRINUSE
}
