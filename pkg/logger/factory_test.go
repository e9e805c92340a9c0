package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/dmitrymomot/otpbridge/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf), logger.WithOutput(nil))
	log.Debug("dropped")
	log.Info("code refreshed", logger.ItemID("item-1"))

	entry := decode(t, buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "code refreshed", entry["msg"])
	assert.Equal(t, "item-1", entry["item_id"])
}

func TestNew_Format(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger.New(logger.WithOutput(buf), logger.WithFormat(logger.FormatText)).Info("hello")
	assert.Contains(t, buf.String(), "level=INFO")
	assert.Contains(t, buf.String(), "msg=hello")

	assert.Panics(t, func() { logger.WithFormat(logger.Format("xml")) })
}

func TestNew_StaticAttrs(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf), logger.WithAttr(logger.Application("authenticator")))
	log.Info("started")
	assert.Equal(t, "authenticator", decode(t, buf)["application"])
}

func TestNew_ContextAttrs(t *testing.T) {
	t.Parallel()

	type userKey struct{}
	type appKey struct{}

	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithContextValue("application", appKey{}),
		logger.WithContextValue("", userKey{}),
		logger.WithContextExtractors(nil, func(ctx context.Context) (slog.Attr, bool) {
			if v, ok := ctx.Value(userKey{}).(string); ok {
				return logger.UserID(v), true
			}
			return slog.Attr{}, false
		}),
	)

	ctx := context.WithValue(context.Background(), appKey{}, "passwordManager")
	ctx = context.WithValue(ctx, userKey{}, "user-1")
	log.With(logger.Component("itemsync")).InfoContext(ctx, "feed opened")

	entry := decode(t, buf)
	assert.Equal(t, "passwordManager", entry["application"])
	assert.Equal(t, "user-1", entry["user_id"])
	assert.Equal(t, "itemsync", entry["component"])

	buf.Reset()
	log.Info("no context values")
	entry = decode(t, buf)
	assert.NotContains(t, entry, "application")
	assert.NotContains(t, entry, "user_id")
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env     string
		wantEnv string
		isJSON  bool
		debug   bool
	}{
		{env: "production", wantEnv: "production", isJSON: true},
		{env: " PROD ", wantEnv: "production", isJSON: true},
		{env: "staging", wantEnv: "staging", isJSON: true},
		{env: "stage", wantEnv: "staging", isJSON: true},
		{env: "development", wantEnv: "development", debug: true},
		{env: "", wantEnv: "development", debug: true},
		{env: "qa", wantEnv: "development", debug: true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()

			buf := &bytes.Buffer{}
			log := logger.New(logger.WithEnvironment(tt.env, "otpbridge"), logger.WithOutput(buf))
			log.Debug("debug")
			if !tt.debug {
				assert.Empty(t, buf.String())
			}
			buf.Reset()
			log.Info("msg")

			if tt.isJSON {
				entry := decode(t, buf)
				assert.Equal(t, "otpbridge", entry["service"])
				assert.Equal(t, tt.wantEnv, entry["env"])
				return
			}
			assert.Contains(t, buf.String(), "service=otpbridge")
			assert.Contains(t, buf.String(), "env="+tt.wantEnv)
		})
	}
}

func TestPresetShorthands(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger.New(logger.WithDevelopment(""), logger.WithOutput(buf)).Debug("dev")
	assert.Contains(t, buf.String(), "env=development")
	assert.NotContains(t, buf.String(), "service=")

	buf.Reset()
	logger.New(logger.WithProduction("svc"), logger.WithOutput(buf)).Info("prod")
	assert.Equal(t, "svc", decode(t, buf)["service"])
}

func TestWithLevelName(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithProduction("svc"), logger.WithLevelName("warn"), logger.WithOutput(buf))
	log.Info("hidden")
	assert.Empty(t, buf.String())
	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	log = logger.New(logger.WithProduction("svc"), logger.WithLevelName("nonsense"), logger.WithOutput(buf))
	log.Info("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestSetAsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	logger.SetAsDefault(logger.New(logger.WithOutput(buf)))
	slog.Info("default")
	assert.Equal(t, "default", decode(t, buf)["msg"])
}
