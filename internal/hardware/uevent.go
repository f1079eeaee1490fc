package hardware

import (
	"bytes"
	"fmt"

	"golang.org/x/sys/unix"

	"insomnia-service/internal/logger"
)

const (
	ueventBufferSize  = 16 * 1024
	ueventPollTimeout = 500 // ms
	ueventKernelGroup = 1
	powerSupplySubsys = "power_supply"
)

func openUeventSocket() (int, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return -1, fmt.Errorf("failed to open uevent socket: %w", err)
	}

	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: ueventKernelGroup,
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("failed to bind uevent socket: %w", err)
	}
	return fd, nil
}

// listenUevents owns fd and closes it when stop is closed. Polling with a
// timeout lets the loop notice stop without another wakeup source.
func listenUevents(fd int, stop <-chan struct{}, l *logger.Logger, onPowerSupply func()) {
	defer unix.Close(fd)

	buf := make([]byte, ueventBufferSize)
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}

	for {
		select {
		case <-stop:
			l.Debugf("Stopping uevent listener")
			return
		default:
		}

		n, err := unix.Poll(fds, ueventPollTimeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			l.Errorf("uevent poll failed: %v", err)
			return
		}
		if n == 0 {
			continue
		}

		n, _, err = unix.Recvfrom(fd, buf, 0)
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			// ENOBUFS means we missed events; treat as a change
			if err == unix.ENOBUFS {
				l.Warnf("uevent buffer overrun")
				onPowerSupply()
				continue
			}
			l.Errorf("uevent receive failed: %v", err)
			return
		}

		env := parseUevent(buf[:n])
		if env["SUBSYSTEM"] == powerSupplySubsys {
			l.Debugf("power_supply %s: %s", env["ACTION"], env["POWER_SUPPLY_NAME"])
			onPowerSupply()
		}
	}
}

// parseUevent splits a kernel uevent ("action@devpath\0KEY=VALUE\0...")
// into its environment.
func parseUevent(msg []byte) map[string]string {
	env := make(map[string]string)
	fields := bytes.Split(msg, []byte{0})
	for i, f := range fields {
		if i == 0 || len(f) == 0 {
			continue
		}
		k, v, ok := bytes.Cut(f, []byte{'='})
		if !ok {
			continue
		}
		env[string(k)] = string(v)
	}
	return env
}
