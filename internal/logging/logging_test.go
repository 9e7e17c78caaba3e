package logging

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_LineFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf})

	log.Infof("Created %d Country nodes", 3)
	log.Sync()

	line := buf.String()
	assert.Regexp(t, regexp.MustCompile(`^\d{2}:\d{2}:\d{2} \| INFO \| Created 3 Country nodes\n$`), line)
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: "warn"})

	log.Debugf("hidden")
	log.Infof("hidden")
	log.Warnf("shown %s", "warning")
	log.Errorf("shown error")
	log.Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "| WARN | shown warning")
	assert.Contains(t, out, "| ERROR | shown error")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestFromZap_Observer(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.Debugf("batch %d/%d", 1, 2)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "batch 1/2", entries[0].Message)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
}
