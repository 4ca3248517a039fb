package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN")

	Info("should not appear")
	assert.Empty(t, buf.String())

	Warn("should appear", KeyHandle, 5)
	assert.Contains(t, buf.String(), "should appear")
	assert.Contains(t, buf.String(), "handle=5")
}

func TestSetFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO")
	SetFormat("json")
	defer SetFormat("text")

	Info("json line")
	assert.True(t, strings.Contains(buf.String(), `"msg":"json line"`))
}
