package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	_, err := SetupLogger(&Config{Level: "loud"})
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "service.log")

	log, err := SetupLogger(&Config{
		Level:      "debug",
		FormatJSON: true,
		Rotation:   Rotation{File: file, MaxSize: 1},
	})
	require.NoError(t, err)

	log.Info("withdrawal accepted")
	_ = log.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "withdrawal accepted")
}
