package notify

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest  = "org.freedesktop.Notifications"
	notifyPath  = "/org/freedesktop/Notifications"
	notifyIface = "org.freedesktop.Notifications"

	expireMs = 5000
)

// Notifier posts desktop notifications over the session bus. Successive
// notifications replace the previous one instead of stacking up.
type Notifier struct {
	AppName string
	Icon    string

	mu   sync.Mutex
	conn *dbus.Conn
	last uint32
}

func New(appName, icon string) *Notifier {
	return &Notifier{AppName: appName, Icon: icon}
}

func (n *Notifier) bus() (*dbus.Conn, error) {
	if n.conn != nil && n.conn.Connected() {
		return n.conn, nil
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("dbus connection error: %w", err)
	}
	n.conn = conn
	return conn, nil
}

func (n *Notifier) Notify(summary, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	conn, err := n.bus()
	if err != nil {
		return err
	}

	obj := conn.Object(notifyDest, dbus.ObjectPath(notifyPath))
	call := obj.Call(notifyIface+".Notify", 0,
		n.AppName,
		n.last,
		n.Icon,
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(1))},
		int32(expireMs),
	)
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err == nil {
		n.last = id
	}
	return nil
}

func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil {
		return nil
	}
	err := n.conn.Close()
	n.conn = nil
	return err
}
