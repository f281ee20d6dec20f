package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"auto_repost_youtube/config"
)

// Manager owns the application logger and its underlying files.
type Manager struct {
	log       *logrus.Logger
	infoFile  *os.File
	errorFile *os.File
}

var global *Manager

// Initialize configures the global logger manager.
func Initialize(cfg *config.Config) (*Manager, error) {
	manager, err := New(cfg)
	if err != nil {
		return nil, err
	}
	global = manager
	return manager, nil
}

// New creates a new Manager instance. Entries go to stdout and the output
// file; entries at error level and above are duplicated into the error file.
func New(cfg *config.Config) (*Manager, error) {
	dir := cfg.LogDirectory
	if dir == "" {
		dir = "./logs"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	outputFile := cfg.LogOutputFile
	if outputFile == "" {
		outputFile = "app.log"
	}
	errorFile := cfg.LogErrorFile
	if errorFile == "" {
		errorFile = "app.error.log"
	}

	infoHandle, err := os.OpenFile(filepath.Join(dir, outputFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	errorHandle, err := os.OpenFile(filepath.Join(dir, errorFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		infoHandle.Close()
		return nil, fmt.Errorf("open error log file: %w", err)
	}

	log := logrus.New()
	log.SetOutput(io.MultiWriter(os.Stdout, infoHandle))
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level := logrus.InfoLevel
	if cfg.LogLevel != "" {
		if parsed, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			level = parsed
		}
	}
	log.SetLevel(level)

	log.AddHook(&errorFileHook{w: errorHandle})

	return &Manager{
		log:       log,
		infoFile:  infoHandle,
		errorFile: errorHandle,
	}, nil
}

// Log returns the underlying logrus logger.
func (m *Manager) Log() *logrus.Logger {
	return m.log
}

// Close releases file handles.
func (m *Manager) Close() error {
	var firstErr error
	if m.infoFile != nil {
		if err := m.infoFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if m.errorFile != nil {
		if err := m.errorFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close releases the global logger manager if initialized.
func Close() error {
	if global == nil {
		return nil
	}
	err := global.Close()
	global = nil
	return err
}

// errorFileHook duplicates error-and-above entries into a dedicated file.
type errorFileHook struct {
	w io.Writer
}

func (h *errorFileHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

func (h *errorFileHook) Fire(entry *logrus.Entry) error {
	line, err := entry.Bytes()
	if err != nil {
		return err
	}
	_, err = h.w.Write(line)
	return err
}

func std() *logrus.Logger {
	if global != nil {
		return global.log
	}
	return logrus.StandardLogger()
}

// Infof logs at info level via the global logger.
func Infof(format string, args ...interface{}) {
	std().Infof(format, args...)
}

// Warnf logs at warn level via the global logger.
func Warnf(format string, args ...interface{}) {
	std().Warnf(format, args...)
}

// Errorf logs at error level via the global logger.
func Errorf(format string, args ...interface{}) {
	std().Errorf(format, args...)
}

// Fatalf logs at fatal level via the global logger and exits.
func Fatalf(format string, args ...interface{}) {
	std().Fatalf(format, args...)
}

// WithFields returns an entry carrying structured context.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return std().WithFields(fields)
}
