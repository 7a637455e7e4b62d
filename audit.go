package authcore

import (
	"io"
	"log/slog"

	"github.com/MrEthical07/authcore/internal/audit"
)

// AuditEvent is one security-relevant outcome emitted by the engine.
type AuditEvent = audit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink discards audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers audit events in a channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes audit events as JSON lines.
type JSONWriterSink = audit.JSONWriterSink

// SlogSink writes audit events as structured log records.
type SlogSink = audit.SlogSink

// NewChannelSink returns a sink with the given channel capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewSlogSink returns a sink logging each event at Info level.
func NewSlogSink(l *slog.Logger) *SlogSink {
	return audit.NewSlogSink(l)
}
