// Package sl содержит небольшие помощники для структурного логирования через slog.
package sl

import (
	"io"
	"log/slog"
)

// Err возвращает атрибут "error" с текстом ошибки err.
//
//	log.Error("failed to open attendance", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// SetupLogger создает логгер процесса: текстовый вывод с уровнем debug при
// debug равном true, иначе JSON с уровнем info.
func SetupLogger(debug bool, out io.Writer) *slog.Logger {
	if debug {
		return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
