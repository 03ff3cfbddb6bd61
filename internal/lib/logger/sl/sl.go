package sl

import (
	"log/slog"
)

// Err creates a slog.Attr with the given error. A nil error is logged as an empty string.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}

	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// TaskID creates a slog.Attr identifying a task record.
func TaskID(id int) slog.Attr {
	return slog.Int("task_id", id)
}

// Op returns a logger tagged with the operation and division names.
func Op(log *slog.Logger, opn, division string) *slog.Logger {
	return log.With(
		slog.String("op", opn),
		slog.String("division", division),
	)
}
