// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logger owns the process-wide zerolog setup: console and rotated
// file outputs driven by config, with per-package loggers that can run at
// their own levels. CLI-facing commands keep console output off by default
// so log lines never interleave with user-facing output.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/festivo/festivo/internal/config"
)

const fallbackLogPath = "./logs/festivo-fallback.log"

// Manager hands out package-scoped loggers sharing one set of outputs.
type Manager struct {
	config  *config.LogConfig
	root    zerolog.Logger
	mu      sync.RWMutex
	perPkg  map[string]zerolog.Logger
	closers []io.Closer
}

// NewManager builds the output stack from cfg and returns a ready manager.
func NewManager(cfg *config.LogConfig) (*Manager, error) {
	m := &Manager{
		config: cfg,
		perPkg: make(map[string]zerolog.Logger),
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var writers []io.Writer
	for _, out := range cfg.Output {
		if !out.Enabled {
			continue
		}
		w, err := m.newWriter(out, cfg.Format)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}

	var sink io.Writer
	switch len(writers) {
	case 0:
		// Never run silent: fall back to a plain append file.
		w, err := m.openFile(fallbackLogPath)
		if err != nil {
			return nil, err
		}
		sink = w
	case 1:
		sink = writers[0]
	default:
		sink = io.MultiWriter(writers...)
	}

	m.root = m.buildRoot(sink, level)
	return m, nil
}

// newWriter builds one configured output.
func (m *Manager) newWriter(out config.LogOutputConfig, format string) (io.Writer, error) {
	switch out.Type {
	case "console":
		if format != "console" {
			return os.Stderr, nil
		}
		return consoleWriter(os.Stderr, "15:04:05.000"), nil

	case "file":
		var w io.Writer
		if out.Rotate.MaxSizeMB > 0 {
			lj := &lumberjack.Logger{
				Filename:   out.Path,
				MaxSize:    out.Rotate.MaxSizeMB,
				MaxBackups: out.Rotate.MaxBackups,
				MaxAge:     out.Rotate.MaxAgeDays,
				Compress:   out.Rotate.Compress,
			}
			if err := os.MkdirAll(filepath.Dir(out.Path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
			m.closers = append(m.closers, lj)
			w = lj
		} else {
			f, err := m.openFile(out.Path)
			if err != nil {
				return nil, err
			}
			w = f
		}
		if format == "console" {
			// Human-readable file output, dated timestamps.
			w = consoleWriter(w, "2006-01-02 15:04:05.000")
		}
		return w, nil

	default:
		return nil, fmt.Errorf("unsupported log output type: %s", out.Type)
	}
}

func (m *Manager) openFile(path string) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	m.closers = append(m.closers, f)
	return f, nil
}

func consoleWriter(out io.Writer, timeFormat string) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: timeFormat,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		},
	}
}

// buildRoot assembles the root logger every package logger derives from.
func (m *Manager) buildRoot(w io.Writer, level zerolog.Level) zerolog.Logger {
	l := zerolog.New(w).Level(level)

	ctx := l.With()
	if m.config.Context.IncludeTimestamp {
		ctx = ctx.Timestamp()
	}
	if m.config.Context.IncludeCaller {
		ctx = ctx.Caller()
	}
	if m.config.Context.IncludeStackTrace != "" {
		ctx = ctx.Stack()
	}
	l = ctx.Logger()

	if m.config.Sampling.Enabled {
		l = l.Sample(&zerolog.BurstSampler{
			Burst:       m.config.Sampling.Initial,
			Period:      m.config.Sampling.Tick,
			NextSampler: &zerolog.BasicSampler{N: m.config.Sampling.Thereafter},
		})
	}
	return l
}

// GetLogger returns the logger for a package, honoring any per-package
// level override from config (log.levels).
func (m *Manager) GetLogger(pkg string) zerolog.Logger {
	m.mu.RLock()
	l, ok := m.perPkg[pkg]
	m.mu.RUnlock()
	if ok {
		return l
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.perPkg[pkg]; ok {
		return l
	}

	level := parseLevel(m.config.Level)
	if override, ok := m.config.Levels[pkg]; ok {
		level = parseLevel(override)
	}
	l = m.root.With().Str("pkg", pkg).Logger().Level(level)
	m.perPkg[pkg] = l
	return l
}

// SetPackageLevel changes a package's level at runtime.
func (m *Manager) SetPackageLevel(pkg, level string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config.Levels == nil {
		m.config.Levels = make(map[string]string)
	}
	m.config.Levels[pkg] = level

	if l, ok := m.perPkg[pkg]; ok {
		m.perPkg[pkg] = l.Level(parseLevel(level))
	}
}

// Close flushes and closes all file-backed outputs.
func (m *Manager) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "FATAL":
		return zerolog.FatalLevel
	case "PANIC":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

var (
	globalManager *Manager
	once          sync.Once
)

// Initialize sets up the global manager. First call wins.
func Initialize(cfg *config.LogConfig) error {
	var err error
	once.Do(func() {
		globalManager, err = NewManager(cfg)
	})
	return err
}

// GetLogger returns a logger for the named package. Before Initialize it
// returns a discard logger so library code never pollutes stdout/stderr.
func GetLogger(pkg string) zerolog.Logger {
	if globalManager == nil {
		return zerolog.New(io.Discard).With().Timestamp().Logger()
	}
	return globalManager.GetLogger(pkg)
}

// CloseGlobal closes the global manager's outputs.
func CloseGlobal() error {
	if globalManager != nil {
		return globalManager.Close()
	}
	return nil
}
