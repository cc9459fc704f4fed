package rtdgi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerTo(&out, &errOut, "gi", false)

	l.Debugf("hidden %d", 1)
	l.Infof("frame %d", 2)
	l.Warnf("slow")
	l.Errorf("failed")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[gi] INFO: frame 2")
	assert.Contains(t, errOut.String(), "[gi] WARN: slow")
	assert.Contains(t, errOut.String(), "[gi] ERROR: failed")

	l.SetDebug(true)
	l.Debugf("shown")
	assert.Contains(t, out.String(), "[gi] DEBUG: shown")
}

func TestLoggerWithoutPrefix(t *testing.T) {
	var out bytes.Buffer
	l := NewLoggerTo(&out, &out, "", false)
	l.Infof("ready")
	assert.Contains(t, out.String(), " INFO: ready")
	assert.NotContains(t, out.String(), "[")
}
