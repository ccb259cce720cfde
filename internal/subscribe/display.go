package subscribe

import (
	"bytes"
	"syscall"

	"github.com/rs/zerolog/log"
)

// Uevent is one kernel object event, keyed by its environment variables
// (ACTION, SUBSYSTEM, DEVNAME, ...).
type Uevent map[string]string

// ParseUevent decodes a raw netlink kobject message: a header line followed
// by NUL separated KEY=VALUE pairs.
func ParseUevent(msg []byte) Uevent {
	ev := Uevent{}
	for _, part := range bytes.Split(msg, []byte{0}) {
		key, val, ok := bytes.Cut(part, []byte("="))
		if !ok {
			continue
		}
		ev[string(key)] = string(val)
	}
	return ev
}

// MonitorChange reports whether ev is a monitor being plugged, unplugged or
// an I2C bus appearing or going away.
func (ev Uevent) MonitorChange() bool {
	switch ev["SUBSYSTEM"] {
	case "drm":
		return ev["ACTION"] == "change" && ev["HOTPLUG"] == "1"
	case "i2c-dev":
		return ev["ACTION"] == "add" || ev["ACTION"] == "remove"
	}
	return false
}

// DisplayEvents emits whenever a monitor or I2C bus comes or goes. Events
// are coalesced; a full buffer drops the new one. The channel is closed once
// stop is closed and the next message arrives.
func DisplayEvents(stop <-chan struct{}) <-chan Uevent {
	events := make(chan Uevent, 1)

	go func() {
		defer close(events)

		fd, err := syscall.Socket(syscall.AF_NETLINK, syscall.SOCK_RAW, syscall.NETLINK_KOBJECT_UEVENT)
		if err != nil {
			log.Warn().Err(err).Msg("subscribe: failed to open netlink socket")
			return
		}
		defer syscall.Close(fd)

		addr := &syscall.SockaddrNetlink{
			Family: syscall.AF_NETLINK,
			Groups: 1, // kernel broadcast group
		}
		if err := syscall.Bind(fd, addr); err != nil {
			log.Warn().Err(err).Msg("subscribe: failed to bind netlink socket")
			return
		}

		// Wake Recvfrom periodically so stop is noticed.
		tv := syscall.Timeval{Sec: 1}
		_ = syscall.SetsockoptTimeval(fd, syscall.SOL_SOCKET, syscall.SO_RCVTIMEO, &tv)

		buf := make([]byte, 8192)
		for {
			select {
			case <-stop:
				return
			default:
			}

			n, _, err := syscall.Recvfrom(fd, buf, 0)
			if err != nil {
				if err == syscall.EAGAIN || err == syscall.EINTR {
					continue
				}
				log.Warn().Err(err).Msg("subscribe: netlink recv error")
				return
			}

			ev := ParseUevent(buf[:n])
			if !ev.MonitorChange() {
				continue
			}

			log.Debug().Str("subsystem", ev["SUBSYSTEM"]).Str("action", ev["ACTION"]).Msg("display uevent")
			select {
			case events <- ev:
			default:
			}
		}
	}()

	return events
}
