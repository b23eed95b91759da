// Package sl содержит вспомогательные функции для работы с логгером slog:
// построение логгера по окружению и единообразные поля для ошибок.
package sl

import (
	"io"
	"log/slog"
)

// Окружения, влияющие на уровень логирования.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// New создаёт текстовый логгер. В local и dev пишется debug, в остальных окружениях info.
func New(env string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch env {
	case envLocal, envDev:
		level = slog.LevelDebug
	case envProd:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
// Для nil возвращается пустая строка.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Discard возвращает логгер, который ничего не пишет. Используется в тестах.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
