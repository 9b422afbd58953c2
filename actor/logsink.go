package actor

import (
	"context"
	"log/slog"
)

// EventLogger lets a runtime event opt into being rendered through slog,
// kept from the teacher's event.go/event_stream.go interface: any event
// broadcast through the engine that implements this gets logged with the
// level, message and attributes it names.
type EventLogger interface {
	Log() (slog.Level, string, []any)
}

// ServiceRetiredEvent is logged whenever a Service is retired from the
// registry; its storage is freed only once every outstanding grab has
// also been released.
type ServiceRetiredEvent struct {
	Handle Handle
}

func (e ServiceRetiredEvent) Log() (slog.Level, string, []any) {
	return slog.LevelDebug, "service retired", []any{"handle", e.Handle.String()}
}

// ModuleLoadFailedEvent is broadcast when LAUNCH fails to create or
// initialize a module instance (spec.md §7 ModuleLoadFailed/ModuleInitFailed).
type ModuleLoadFailedEvent struct {
	Module string
	Reason error
}

func (e ModuleLoadFailedEvent) Log() (slog.Level, string, []any) {
	return slog.LevelError, "module load failed", []any{"module", e.Module, "reason", e.Reason}
}

// InvalidSendEvent describes a send that targets a zero or retired Handle
// (spec.md §7 InvalidHandle). The engine does not log it: such a send is
// reported to its sender only through a synthesized PTYPE_ERROR.
type InvalidSendEvent struct {
	Source      Handle
	Destination Handle
}

func (e InvalidSendEvent) Log() (slog.Level, string, []any) {
	return slog.LevelWarn, "send to invalid handle", []any{"source", e.Source.String(), "destination", e.Destination.String()}
}

// MailboxOverloadEvent is broadcast when a mailbox's length crosses its
// current overload threshold (spec.md §4.2, §7 MailboxOverload).
type MailboxOverloadEvent struct {
	Handle Handle
	Length int
}

func (e MailboxOverloadEvent) Log() (slog.Level, string, []any) {
	return slog.LevelWarn, "mailbox overload", []any{"handle", e.Handle.String(), "length", e.Length}
}

// logEvent renders e through slog using the (level, message, attrs)
// triple it advertises.
func logEvent(e EventLogger) {
	level, msg, attrs := e.Log()
	slog.Log(context.Background(), level, msg, attrs...)
}
