package logging

import (
	"bytes"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DEBUG, ParseLevel("DEBUG"))
	assert.Equal(t, log.WARN, ParseLevel("warning"))
	assert.Equal(t, log.ERROR, ParseLevel(" error "))
	assert.Equal(t, log.OFF, ParseLevel("off"))
	assert.Equal(t, log.INFO, ParseLevel("verbose"))
}

func TestNewWithOutputFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput("test", "warn", &buf)
	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"prefix":"test"`)
	assert.Contains(t, buf.String(), "shown")
}
