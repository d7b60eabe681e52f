package main

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/hardimpactdev/orbit-ui-sub001/internal/config"
)

// captureLogOutput calls logConfigWarnings with the given config and returns
// the captured log output as a string.
func captureLogOutput(cfg *config.Config) string {
	var buf bytes.Buffer
	original := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(original)

	logConfigWarnings(cfg)
	return buf.String()
}

func quietConfig() *config.Config {
	return &config.Config{
		MetricsEnabled:     true,
		PushEnabled:        true,
		ProvisionGrace:     60 * time.Second,
		ProvisionGraceStr:  "60s",
		DeletionGrace:      10 * time.Second,
		DeletionGraceStr:   "10s",
		EventBusBufferSize: 100,
	}
}

func TestLogConfigWarnings_CleanConfig(t *testing.T) {
	output := captureLogOutput(quietConfig())

	if strings.Contains(output, "WARNING") {
		t.Error("did not expect any warnings, got:", output)
	}
	if strings.Contains(output, "INFO") {
		t.Error("did not expect any INFO messages, got:", output)
	}
}

func TestLogConfigWarnings_MetricsDisabled(t *testing.T) {
	cfg := quietConfig()
	cfg.MetricsEnabled = false
	output := captureLogOutput(cfg)

	if !strings.Contains(output, "WARNING [P1]: METRICS_ENABLED=false") {
		t.Error("expected metrics P1 warning, got:", output)
	}
}

func TestLogConfigWarnings_InvertedGraces(t *testing.T) {
	cfg := quietConfig()
	cfg.DeletionGrace = 2 * time.Minute
	cfg.DeletionGraceStr = "2m"
	output := captureLogOutput(cfg)

	if !strings.Contains(output, "WARNING [P1]: DELETION_GRACE=2m exceeds PROVISION_GRACE=60s") {
		t.Error("expected inverted grace warning, got:", output)
	}
}

func TestLogConfigWarnings_PushDisabled(t *testing.T) {
	cfg := quietConfig()
	cfg.PushEnabled = false
	output := captureLogOutput(cfg)

	if !strings.Contains(output, "INFO: PUSH_ENABLED=false") {
		t.Error("expected push-disabled INFO, got:", output)
	}
	if strings.Contains(output, "WARNING") {
		t.Error("push-disabled must be informational only, got:", output)
	}
}

func TestLogConfigWarnings_TinyBuffer(t *testing.T) {
	cfg := quietConfig()
	cfg.EventBusBufferSize = 5
	output := captureLogOutput(cfg)

	if !strings.Contains(output, "INFO: EVENTBUS_BUFFER_SIZE=5") {
		t.Error("expected tiny buffer INFO, got:", output)
	}
}

func TestLogConfigWarnings_AllWarnings(t *testing.T) {
	cfg := quietConfig()
	cfg.MetricsEnabled = false
	cfg.PushEnabled = false
	cfg.EventBusBufferSize = 1
	output := captureLogOutput(cfg)

	expected := []string{
		"WARNING [P1]: METRICS_ENABLED=false",
		"INFO: PUSH_ENABLED=false",
		"INFO: EVENTBUS_BUFFER_SIZE=1",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}
