package main

import (
	"context"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"cpdetect/buffer"
	"cpdetect/classify"
	"cpdetect/engine"
	"cpdetect/machine"
	"cpdetect/metrics"
	"cpdetect/sink"

	"github.com/neovim/go-client/nvim"
)

type Daemon struct {
	config      Config
	engine      *engine.Engine
	sink        *sink.File
	tracker     *metrics.Tracker
	listener    net.Listener
	socketPath  string
	pidPath     string
	clientCount int64
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewDaemon(config Config) (*Daemon, error) {
	machineID := machine.ID()

	records, err := sink.NewFile(config.SinkDir, time.Now())
	if err != nil {
		return nil, err
	}
	tracker := metrics.NewTracker(config.MetricsURL, config.MetricsAPIKey, machineID)

	eng, err := engine.NewEngine(
		classify.NewHeuristic(config.classifierConfig()),
		engine.Reporters{records, tracker},
		config.engineConfig(machineID),
		engine.RealClock(),
	)
	if err != nil {
		records.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		config:     config,
		engine:     eng,
		sink:       records,
		tracker:    tracker,
		socketPath: getSocketPath(),
		pidPath:    getPidPath(),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

func (d *Daemon) Start() error {
	// Setup logging and PID management
	d.writePidFile()
	defer d.removePidFile()

	// Setup socket
	if err := d.setupSocket(); err != nil {
		return err
	}
	defer d.cleanup()

	log.Printf("daemon listening on socket: %s", d.socketPath)

	// Start engine
	d.engine.Start(d.ctx)

	// Setup shutdown handling
	d.setupShutdownHandling()

	// Start connection handling
	go d.acceptConnections()

	// Start idle monitoring
	go d.monitorIdleShutdown()

	// Wait for shutdown
	<-d.ctx.Done()
	log.Printf("daemon shutting down...")
	d.engine.Stop()
	return nil
}

func (d *Daemon) setupSocket() error {
	// Remove existing socket
	os.Remove(d.socketPath)

	// Listen on Unix socket
	listener, err := net.Listen("unix", d.socketPath)
	if err != nil {
		return err
	}
	d.listener = listener
	return nil
}

func (d *Daemon) setupShutdownHandling() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Printf("received shutdown signal")
		d.Stop()
	}()
}

func (d *Daemon) acceptConnections() {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.ctx.Done():
				return // Server is shutting down
			default:
				log.Printf("error accepting connection: %v", err)
				continue
			}
		}

		atomic.AddInt64(&d.clientCount, 1)
		log.Printf("new client connected, total clients: %d", atomic.LoadInt64(&d.clientCount))
		go d.handleConnection(conn)
	}
}

func (d *Daemon) handleConnection(conn net.Conn) {
	defer conn.Close()
	defer func() {
		atomic.AddInt64(&d.clientCount, -1)
		log.Printf("client disconnected, remaining clients: %d", atomic.LoadInt64(&d.clientCount))
	}()

	// Create Neovim client from the connection
	n, err := nvim.New(conn, conn, conn, log.Printf)
	if err != nil {
		log.Printf("error creating nvim client: %v", err)
		return
	}

	// Each connection is its own editor; its detectors go away with it
	editor := buffer.NewEditor(n)
	d.engine.SetEditor(editor)
	defer d.engine.DetachEditor(editor)

	// Serve this connection until it closes or context is done
	select {
	case <-d.ctx.Done():
		return
	default:
		if err := n.Serve(); err != nil && err != io.EOF {
			log.Printf("error serving connection: %v", err)
		}
	}
}

// idleInterval is how long the daemon may sit without clients before exiting.
func (d *Daemon) idleInterval() time.Duration {
	if d.config.DebugImmediateShutdown {
		return time.Second
	}
	return 30 * time.Second
}

func (d *Daemon) monitorIdleShutdown() {
	timer := time.NewTimer(d.idleInterval())
	defer timer.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-timer.C:
			if atomic.LoadInt64(&d.clientCount) == 0 {
				log.Printf("no clients connected for %v, shutting down daemon", d.idleInterval())
				d.Stop()
				return
			}
			timer.Reset(d.idleInterval())
		}
	}
}

func (d *Daemon) Stop() {
	d.engine.Stop()
	if d.listener != nil {
		d.listener.Close()
	}
	d.cancel()
}

// cleanup removes the socket and flushes reporters. Records reported after
// the sink closes are dropped.
func (d *Daemon) cleanup() {
	os.Remove(d.socketPath)
	if err := d.sink.Close(); err != nil {
		log.Printf("error closing sink: %v", err)
	}
	d.tracker.Wait()
}

func (d *Daemon) writePidFile() {
	pid := os.Getpid()
	err := os.WriteFile(d.pidPath, []byte(strconv.Itoa(pid)), 0644)
	if err != nil {
		log.Printf("warning: could not write PID file: %v", err)
	}
	log.Printf("server started with PID %d", pid)
}

func (d *Daemon) removePidFile() {
	if err := os.Remove(d.pidPath); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not remove PID file: %v", err)
	}
}
