package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommand(args ...string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{Use: "test"}
	RegisterLoggingFlags(cmd.Flags())
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	_ = cmd.Flags().Parse(args)
	return cmd, &stdout, &stderr
}

func TestGetBaseLoggerDefaults(t *testing.T) {
	r := require.New(t)
	cmd, stdout, stderr := newCommand()
	logger, err := GetBaseLogger(cmd)
	r.NoError(err)

	r.False(logger.Enabled(context.Background(), slog.LevelInfo))
	logger.Warn("dangling reference", "feature", "links")
	r.Empty(stdout.String())
	r.Contains(stderr.String(), "level=WARN")
	r.Contains(stderr.String(), "feature=links")
}

func TestGetBaseLogger(t *testing.T) {
	for _, tt := range []struct {
		name     string
		args     []string
		enabled  slog.Level
		toStdout bool
		contains string
	}{
		{name: "json debug", args: []string{"--logformat", "json", "--loglevel", "debug"}, enabled: slog.LevelDebug, contains: `"msg":"record"`},
		{name: "stdout", args: []string{"--logoutput", "stdout", "--loglevel", "info"}, enabled: slog.LevelInfo, toStdout: true, contains: "msg=record"},
		{name: "error only", args: []string{"--loglevel", "error"}, enabled: slog.LevelError, contains: "level=ERROR"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cmd, stdout, stderr := newCommand(tt.args...)
			logger, err := GetBaseLogger(cmd)
			require.NoError(t, err)
			assert.True(t, logger.Enabled(t.Context(), tt.enabled))
			assert.False(t, logger.Enabled(t.Context(), tt.enabled-1))

			logger.Log(t.Context(), tt.enabled, "record")
			out := stderr
			if tt.toStdout {
				out = stdout
			}
			assert.Contains(t, out.String(), tt.contains)
		})
	}
}

func TestGetBaseLoggerWithoutFlags(t *testing.T) {
	_, err := GetBaseLogger(&cobra.Command{Use: "bare"})
	assert.Error(t, err)
}
