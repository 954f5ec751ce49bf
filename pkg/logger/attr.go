package logger

import (
	"log/slog"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the acting user under the key "user_id".
// An empty id yields an empty Attr.
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// Component records the UI component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Command records a command id under the key "command".
func Command(id string) slog.Attr {
	return slog.String("command", id)
}

// Checker records a checker name under the key "checker".
func Checker(name string) slog.Attr {
	return slog.String("checker", name)
}

// Checkers records several checker names under the key "checkers".
func Checkers(names []string) slog.Attr {
	return slog.Any("checkers", names)
}

// CommandGroup records a command group name under the key "command_group".
func CommandGroup(name string) slog.Attr {
	return slog.String("command_group", name)
}

// ObjectType records a type name under the key "object_type".
func ObjectType(name string) slog.Attr {
	return slog.String("object_type", name)
}

// Root records a checker tree root under the key "root".
func Root(id string) slog.Attr {
	return slog.String("root", id)
}

// Token records a suspension token id under the key "token".
func Token(id string) slog.Attr {
	return slog.String("token", id)
}

// State records an execution state under the key "state".
func State(name string) slog.Attr {
	return slog.String("state", name)
}

// Reason records a disabled or failure reason key under the key "reason".
func Reason(key string) slog.Attr {
	return slog.String("reason", key)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
