package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const FormatText = "text"

// New создает логгер с JSON-выводом в stdout. format "text" включает текстовый формат для локального запуска.
func New(logLevel, format string) *logrus.Logger {
	return newLogger(os.Stdout, logLevel, format)
}

func newLogger(out io.Writer, logLevel, format string) *logrus.Logger {
	log := logrus.New()

	if format == FormatText {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	log.SetOutput(out)

	// Уровень логирования
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel // Уровень по умолчанию, если передан некорректный
	}
	log.SetLevel(level)
	// На debug и ниже в записи попадает место вызова
	log.SetReportCaller(level >= logrus.DebugLevel)
	return log
}
