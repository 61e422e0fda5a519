package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"cpdetect/classify"
	"cpdetect/engine"
	"cpdetect/logger"
)

const configEnv = "CPDETECT_CONFIG"

type Config struct {
	LogLevel                string   `json:"log_level"`   // trace, debug, info, warn, error
	PauseDelay              int      `json:"pause_delay"` // in milliseconds
	MinInsertLength         int      `json:"min_insert_length"`
	SignificantInsertLength int      `json:"significant_insert_length"`
	Keywords                []string `json:"keywords"`
	SinkDir                 string   `json:"sink_dir"` // defaults to the executable's directory
	MaxDocuments            int      `json:"max_documents"`
	MetricsURL              string   `json:"metrics_url"` // empty disables metrics
	MetricsAPIKey           string   `json:"metrics_api_key"`
	DebugImmediateShutdown  bool     `json:"debug_immediate_shutdown"`
}

// withDefaults fills zero values. execDir is the executable's directory.
func (c Config) withDefaults(execDir string) Config {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.PauseDelay <= 0 {
		c.PauseDelay = int(engine.DefaultPauseDelay / time.Millisecond)
	}
	if c.MinInsertLength <= 0 {
		c.MinInsertLength = classify.DefaultMinLength
	}
	if c.SignificantInsertLength <= 0 {
		c.SignificantInsertLength = classify.DefaultSignificantLength
	}
	if len(c.Keywords) == 0 {
		c.Keywords = classify.DefaultKeywords
	}
	if c.SinkDir == "" {
		c.SinkDir = execDir
	}
	if c.MaxDocuments <= 0 {
		c.MaxDocuments = engine.DefaultMaxDocuments
	}
	return c
}

func (c Config) classifierConfig() classify.Config {
	return classify.Config{
		MinLength:         c.MinInsertLength,
		SignificantLength: c.SignificantInsertLength,
		Keywords:          c.Keywords,
	}
}

func (c Config) engineConfig(machineID string) engine.EngineConfig {
	return engine.EngineConfig{
		PauseDelay:   time.Duration(c.PauseDelay) * time.Millisecond,
		MaxDocuments: c.MaxDocuments,
		MachineID:    machineID,
	}
}

// parseConfig decodes raw JSON. Blank input means all defaults.
func parseConfig(raw, execDir string) (Config, error) {
	var config Config
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &config); err != nil {
			return Config{}, fmt.Errorf("invalid config: %w", err)
		}
	}
	return config.withDefaults(execDir), nil
}

type ServerMode string

const (
	ModeDaemon ServerMode = "daemon"
	ModeClient ServerMode = "client"
)

func execDir() string {
	execPath, err := os.Executable()
	if err != nil {
		log.Fatalf("error getting executable path: %v", err)
	}
	return filepath.Dir(execPath)
}

// Setup logger to log to a file in the same directory as the executable
// Caller must defer logger.Close()
func setupLogger(logLevel string) *logger.LimitedLogger {
	ll, err := logger.Open(filepath.Join(execDir(), "cpdetect.log"), logger.ParseLogLevel(logLevel))
	if err != nil {
		log.Fatalf("error opening log: %v", err)
	}
	log.SetOutput(ll)
	return ll
}

func getSocketPath() string {
	return filepath.Join(execDir(), "cpdetect.sock")
}

func getPidPath() string {
	return filepath.Join(execDir(), "cpdetect.pid")
}

func isDaemonRunning() (bool, int) {
	data, err := os.ReadFile(getPidPath())
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, 0
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}

	// On Unix, Signal(0) checks if process exists
	err = process.Signal(syscall.Signal(0))
	return err == nil, pid
}

func loadConfig() Config {
	config, err := parseConfig(os.Getenv(configEnv), execDir())
	if err != nil {
		log.Fatalf("%v", err)
	}
	return config
}

func runDaemon() {
	config := loadConfig()

	ll := setupLogger(config.LogLevel)
	defer ll.Close()

	log.Printf("config: %+v", config)

	daemon, err := NewDaemon(config)
	if err != nil {
		log.Fatalf("error creating daemon: %v", err)
	}

	if err := daemon.Start(); err != nil {
		log.Fatalf("error starting daemon: %v", err)
	}
}

func runClient() {
	client := NewClient()

	if err := client.EnsureDaemonRunning(); err != nil {
		log.Fatalf("error ensuring daemon is running: %v", err)
	}

	if err := client.Connect(); err != nil {
		log.Fatalf("error connecting to daemon: %v", err)
	}
}

func main() {
	var mode ServerMode = ModeClient

	if len(os.Args) > 1 && os.Args[1] == "--daemon" {
		mode = ModeDaemon
	}

	switch mode {
	case ModeDaemon:
		runDaemon()
	case ModeClient:
		runClient()
	}
}
