package ir

import (
	"context"
	"log/slog"
)

// slogNode wraps a Node as a slog.LogValuer to not render instructions
// unless they definitely need to be logged
func slogNode(node Node) slog.LogValuer { return nodeLogValuer{node} }

type nodeLogValuer struct{ Node }

func (l nodeLogValuer) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("str", l.Node.String()),
		slog.String("loc", l.Node.Loc().String()),
	)
}

// SlogHandler is a slog.Handler capable of lazy-printing IR nodes
func SlogHandler(underlying slog.Handler) slog.Handler {
	return &nodeLogHandler{underlying: underlying}
}

type nodeLogHandler struct {
	underlying slog.Handler
}

func (l *nodeLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return l.underlying.Enabled(ctx, level)
}

func (l *nodeLogHandler) Handle(ctx context.Context, record slog.Record) error {
	newRecord := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	// for each attr, add it wrapped in slogNode if it is an Any and then a Node
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Value.Kind() == slog.KindAny {
			if node, ok := attr.Value.Any().(Node); ok {
				newRecord.Add(attr.Key, slogNode(node))
				return true
			}
		}
		newRecord.Add(attr)
		return true
	})
	return l.underlying.Handle(ctx, newRecord)
}

func (l *nodeLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	for i, attr := range attrs {
		if attr.Value.Kind() == slog.KindAny {
			if node, ok := attr.Value.Any().(Node); ok {
				attr.Value = slog.AnyValue(slogNode(node))
				attrs[i] = attr
			}
		}
	}
	return SlogHandler(l.underlying.WithAttrs(attrs))
}

func (l *nodeLogHandler) WithGroup(name string) slog.Handler {
	return SlogHandler(l.underlying.WithGroup(name))
}
