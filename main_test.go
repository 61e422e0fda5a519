package main

import (
	"testing"
	"time"

	"cpdetect/assert"
	"cpdetect/classify"
	"cpdetect/engine"
)

func TestParseConfig_EmptyMeansDefaults(t *testing.T) {
	config, err := parseConfig("", "/opt/cpdetect")

	assert.NoError(t, err, "parseConfig")
	assert.Equal(t, "info", config.LogLevel, "log level")
	assert.Equal(t, 1000, config.PauseDelay, "pause delay")
	assert.Equal(t, classify.DefaultMinLength, config.MinInsertLength, "min length")
	assert.Equal(t, classify.DefaultSignificantLength, config.SignificantInsertLength, "significant length")
	assert.Equal(t, classify.DefaultKeywords, config.Keywords, "keywords")
	assert.Equal(t, "/opt/cpdetect", config.SinkDir, "sink dir")
	assert.Equal(t, engine.DefaultMaxDocuments, config.MaxDocuments, "max documents")
	assert.Equal(t, "", config.MetricsURL, "metrics disabled")
}

func TestParseConfig_Overrides(t *testing.T) {
	raw := `{
		"log_level": "debug",
		"pause_delay": 250,
		"min_insert_length": 4,
		"significant_insert_length": 8,
		"keywords": ["def", "fn"],
		"sink_dir": "/tmp/records",
		"max_documents": 3,
		"metrics_url": "http://localhost:9000/track",
		"debug_immediate_shutdown": true
	}`

	config, err := parseConfig(raw, "/opt/cpdetect")

	assert.NoError(t, err, "parseConfig")
	assert.Equal(t, "debug", config.LogLevel, "log level")
	assert.Equal(t, "/tmp/records", config.SinkDir, "sink dir")
	assert.True(t, config.DebugImmediateShutdown, "debug shutdown")

	ec := config.engineConfig("m-1")
	assert.Equal(t, 250*time.Millisecond, ec.PauseDelay, "pause delay")
	assert.Equal(t, 3, ec.MaxDocuments, "max documents")
	assert.Equal(t, "m-1", ec.MachineID, "machine id")

	cc := config.classifierConfig()
	assert.Equal(t, 4, cc.MinLength, "min length")
	assert.Equal(t, 8, cc.SignificantLength, "significant length")
	assert.Equal(t, []string{"def", "fn"}, cc.Keywords, "keywords")
}

func TestParseConfig_InvalidJSON(t *testing.T) {
	_, err := parseConfig("{not json", "/opt/cpdetect")
	assert.Error(t, err, "invalid JSON")
}

func TestDaemonIdleInterval(t *testing.T) {
	d := &Daemon{config: Config{}}
	assert.Equal(t, 30*time.Second, d.idleInterval(), "normal mode")

	d.config.DebugImmediateShutdown = true
	assert.Equal(t, time.Second, d.idleInterval(), "debug mode")
}
