package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/boundsec/pkg/logger"
)

type ctxKey struct{}

func TestNew_Environments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		env       string
		wantJSON  bool
		wantDebug bool
		wantEnv   string
	}{
		{name: "development", env: logger.Development, wantDebug: true, wantEnv: "development"},
		{name: "unknown falls back to development", env: "qa", wantDebug: true, wantEnv: "development"},
		{name: "production", env: logger.Production, wantJSON: true, wantEnv: "production"},
		{name: "prod alias", env: "prod", wantJSON: true, wantEnv: "production"},
		{name: "staging alias", env: "stage", wantJSON: true, wantEnv: "staging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			buf := &bytes.Buffer{}
			log := logger.New(logger.WithEnvironment(tt.env, "svc"), logger.WithOutput(buf))

			log.Debug("debug message")
			if tt.wantDebug {
				assert.Contains(t, buf.String(), "debug message")
			} else {
				assert.Empty(t, buf.String())
			}

			buf.Reset()
			log.Info("hello")
			if tt.wantJSON {
				var entry map[string]any
				require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
				assert.Equal(t, tt.wantEnv, entry["env"])
				assert.Equal(t, "svc", entry["service"])
			} else {
				assert.Contains(t, buf.String(), "env="+tt.wantEnv)
			}
		})
	}
}

func TestNew_ContextExtraction(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithFormat(logger.FormatJSON),
		logger.WithOutput(buf),
		logger.WithContextValue("tenant", ctxKey{}),
		logger.WithContextExtractors(nil, func(ctx context.Context) (slog.Attr, bool) {
			return slog.String("static", "yes"), true
		}, func(context.Context) (slog.Attr, bool) {
			return logger.UserID(""), true
		}),
		logger.WithAttr(slog.String("app", "boundsec")),
	)

	ctx := context.WithValue(context.Background(), ctxKey{}, "acme")
	log.With("k", "v").InfoContext(ctx, "executed", logger.Command("doc.save"), logger.Error(nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "acme", entry["tenant"])
	assert.Equal(t, "yes", entry["static"])
	assert.Equal(t, "boundsec", entry["app"])
	assert.Equal(t, "doc.save", entry["command"])
	assert.Equal(t, "v", entry["k"])
	assert.NotContains(t, entry, "error")
	assert.NotContains(t, entry, "")
	assert.NotContains(t, entry, "user_id")
}

func TestWithFormat_Invalid(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	assert.Equal(t, "error", logger.Error(err).Key)
	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	assert.True(t, logger.UserID("").Equal(slog.Attr{}))
	assert.Equal(t, "alice", logger.UserID("alice").Value.String())
	assert.Equal(t, "token", logger.Token("t1").Key)
	assert.Equal(t, "command_group", logger.CommandGroup("write").Key)

	g := logger.Group("req", logger.State("PENDING"), logger.Reason("x"))
	require.Equal(t, slog.KindGroup, g.Value.Kind())
	assert.Len(t, g.Value.Group(), 2)
}

func TestNop(t *testing.T) {
	t.Parallel()
	log := logger.Nop()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
