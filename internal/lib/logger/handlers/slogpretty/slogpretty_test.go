package slogpretty_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/linemk/agriconnect/internal/lib/logger/handlers/slogpretty"
	"github.com/stretchr/testify/assert"
)

func TestPrettyHandler_WritesMessageAndAttrs(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	opts := slogpretty.PrettyHandlerOptions{SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug}}
	log := slog.New(opts.NewPrettyHandler(&buf))

	log.With(slog.String("op", "service.Orders.Create")).
		Error("failed to create order", slog.Any("error", errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "ERROR:")
	assert.Contains(t, out, "failed to create order")
	assert.Contains(t, out, `"op": "service.Orders.Create"`)
	assert.Contains(t, out, `"error": "boom"`)
}

func TestPrettyHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	opts := slogpretty.PrettyHandlerOptions{SlogOpts: &slog.HandlerOptions{Level: slog.LevelInfo}}
	log := slog.New(opts.NewPrettyHandler(&buf))

	log.Debug("hidden")
	assert.Empty(t, buf.String())
}
