package log

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

func textLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "time" || a.Key == "duration" {
				return slog.Attr{}
			}
			return a
		}}))
}

func TestOperation(t *testing.T) {
	var buf bytes.Buffer
	ctx := slogcontext.NewCtx(t.Context(), textLogger(&buf))

	done := Operation(ctx, "test-operation", slog.String("test", "value"))
	assert.Equal(t, "level=DEBUG msg=\"operation starting\" realm=modeljson operation=test-operation test=value\n", buf.String())
	buf.Reset()
	done(nil)
	assert.Contains(t, buf.String(), "level=DEBUG msg=\"operation completed\" realm=modeljson operation=test-operation")
	buf.Reset()
	done(assert.AnError)
	assert.Contains(t, buf.String(), "level=ERROR msg=\"operation failed\" realm=modeljson operation=test-operation")
}

func TestLogDefer(t *testing.T) {
	var buf bytes.Buffer
	ctx := slogcontext.NewCtx(t.Context(), textLogger(&buf))
	test := func() (err error) {
		done := Operation(ctx, "test")
		defer func() {
			done(err)
		}()
		return errors.New("operation failed")
	}
	_ = test()

	assert.Contains(t, buf.String(), "level=ERROR msg=\"operation failed\" realm=modeljson operation=test")
}

func TestDocumentAttr(t *testing.T) {
	r := require.New(t)
	doc := model.NewDocument("a.json")
	doc.AddWarning(assert.AnError)

	attr := DocumentAttr(doc)
	r.Equal("document", attr.Key)
	group, ok := attr.Value.Any().([]slog.Attr)
	r.True(ok)
	r.Len(group, 2)
	r.Equal("a.json", group[0].Value.String())

	diag := DiagnosticsAttr(doc)
	group, ok = diag.Value.Any().([]slog.Attr)
	r.True(ok)
	r.Equal(int64(1), group[1].Value.Int64())
}
