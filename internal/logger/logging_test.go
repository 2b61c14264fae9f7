package logger

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestNewWithConfig(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithConfig(&buf, "scan", log.InfoLevel, false, false, log.TextFormatter)

	l.Debug("hidden")
	l.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "scan")
}

func TestSetup(t *testing.T) {
	defer log.SetLevel(log.GetLevel())

	Setup(true)
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.Equal(t, log.DebugLevel, New("x").GetLevel())

	Setup(false)
	assert.Equal(t, log.WarnLevel, log.GetLevel())
}
