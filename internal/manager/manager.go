package manager

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Handler answers one IPC command. The returned text is sent back after
// "OK: "; an error is sent back after "ERR: ".
type Handler func(name string, args []string) (string, error)

type AppManager struct {
	mu       sync.Mutex
	stops    []chan struct{}
	wg       sync.WaitGroup
	listener net.Listener
	handler  Handler
}

var Manage = &AppManager{}

var ErrUnknownCommand = errors.New("unknown command")

func getSocketPath() string {
	var baseDir string
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		baseDir = runtimeDir
	} else {
		baseDir = os.TempDir()
	}

	socketDir := filepath.Join(baseDir, AppName)
	if err := os.MkdirAll(socketDir, 0o700); err != nil {
		return filepath.Join(os.TempDir(), AppName+"-socket.sock")
	}
	return filepath.Join(socketDir, "socket.sock")
}

func (m *AppManager) Handle(h Handler) {
	m.mu.Lock()
	m.handler = h
	m.mu.Unlock()
}

// StartIPCServer binds the control socket and serves it in the background.
// A stale socket left by a crashed instance is replaced.
func (m *AppManager) StartIPCServer() error {
	socketPath := getSocketPath()
	_ = os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}

	m.mu.Lock()
	m.listener = listener
	m.mu.Unlock()

	log.Info().Str("socket", socketPath).Msg("IPC server listening")

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.serve(listener)
	}()
	return nil
}

func (m *AppManager) serve(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Debug().Err(err).Msg("accept failed")
			continue
		}
		go m.handleConnection(conn)
	}
}

func (m *AppManager) handleConnection(conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil {
		return
	}

	fields := strings.Fields(string(buf[:n]))
	if len(fields) == 0 {
		_, _ = conn.Write([]byte("ERR: empty command"))
		return
	}
	name, args := strings.ToUpper(fields[0]), fields[1:]

	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()

	if name == "PING" {
		_, _ = conn.Write([]byte("OK: pong"))
		return
	}
	if h == nil {
		_, _ = conn.Write([]byte("ERR: not ready"))
		return
	}

	log.Debug().Str("command", name).Strs("args", args).Msg("IPC command")

	reply, err := h(name, args)
	if err != nil {
		_, _ = conn.Write([]byte("ERR: " + err.Error()))
		return
	}
	_, _ = conn.Write([]byte("OK: " + reply))
}

// StartWatcher runs f until StopAll, restarting it after a panic or an
// early return.
func (m *AppManager) StartWatcher(f func(stop <-chan struct{})) {
	stop := make(chan struct{})
	m.mu.Lock()
	m.stops = append(m.stops, stop)
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Error().Interface("panic", r).Msg("watcher panic")
					}
				}()
				f(stop)
			}()

			select {
			case <-stop:
				return
			case <-time.After(2 * time.Second):
				log.Debug().Msg("restarting watcher")
			}
		}
	}()
}

// StopAll closes the socket, stops all watchers and waits for them.
func (m *AppManager) StopAll() {
	m.mu.Lock()
	stops := m.stops
	listener := m.listener
	m.stops = nil
	m.listener = nil
	m.mu.Unlock()

	for _, s := range stops {
		close(s)
	}
	if listener != nil {
		_ = listener.Close()
		_ = os.Remove(listener.Addr().String())
	}

	m.wg.Wait()
}

func (m *AppManager) ConnectIPC() (net.Conn, error) {
	return net.DialTimeout("unix", getSocketPath(), 500*time.Millisecond)
}

// Running reports whether another instance answers on the socket.
func (m *AppManager) Running() bool {
	reply, err := m.SendIPCCommand("PING")
	return err == nil && strings.HasPrefix(reply, "OK")
}

func (m *AppManager) SendIPCCommand(cmd string) (string, error) {
	conn, err := m.ConnectIPC()
	if err != nil {
		return "", err
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	if _, err := conn.Write([]byte(cmd)); err != nil {
		return "", err
	}

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}

	return string(buf[:n]), nil
}

// ParseReply splits a server reply into its payload or an error.
func ParseReply(reply string) (string, error) {
	if rest, ok := strings.CutPrefix(reply, "OK:"); ok {
		return strings.TrimSpace(rest), nil
	}
	if rest, ok := strings.CutPrefix(reply, "ERR:"); ok {
		return "", errors.New(strings.TrimSpace(rest))
	}
	return "", fmt.Errorf("malformed reply %q", reply)
}
