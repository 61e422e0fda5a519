package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"cpdetect/logger"
)

// Client relays Neovim's RPC stdio to the shared daemon socket.
type Client struct {
	socketPath string
}

func NewClient() *Client {
	return &Client{
		socketPath: getSocketPath(),
	}
}

func (c *Client) Connect() error {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Relay between stdin/stdout and socket
	go func() {
		io.Copy(conn, os.Stdin)
		conn.Close()
	}()

	io.Copy(os.Stdout, conn)
	return nil
}

func (c *Client) EnsureDaemonRunning() error {
	if running, pid := isDaemonRunning(); running && c.socketReady() {
		logger.Debug("daemon already running with PID %d", pid)
		return nil
	}

	return c.startDaemon()
}

func (c *Client) startDaemon() error {
	logger.Debug("starting daemon...")

	cmd := []string{os.Args[0], "--daemon"}
	_, err := os.StartProcess(os.Args[0], cmd, &os.ProcAttr{
		Env: os.Environ(),
		Files: []*os.File{
			nil, // stdin
			nil, // stdout
			nil, // stderr
		},
	})
	if err != nil {
		return err
	}

	return c.waitForDaemon(5 * time.Second)
}

// socketReady reports whether the daemon socket exists. Dialing it would
// register a connection with the daemon.
func (c *Client) socketReady() bool {
	info, err := os.Stat(c.socketPath)
	return err == nil && info.Mode()&os.ModeSocket != 0
}

func (c *Client) waitForDaemon(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if running, _ := isDaemonRunning(); running && c.socketReady() {
			logger.Debug("daemon started successfully")
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon failed to start within %v", timeout)
}
