// Package log wires up the process-wide zap logger. InitLogger picks a
// level from ipcaster's -v 0..6 verbosity scale and fans output out to
// both stdout and a rotated log file via lumberjack.
//
// Grounded on ipcaster's original base/Logger.hpp verbosity scale
// (QUIET..DEBUG1), realized with a zap core tee'd to stdout and file.
package log

import (
	"os"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sugar is the process-wide logger. Set by InitLogger.
var Sugar *zap.SugaredLogger

// Verbosity mirrors the original Logger::Level scale: each step enables
// one more class of message, from silence up to the most chatty debug
// output.
type Verbosity int

const (
	Quiet   Verbosity = 0
	Fatal   Verbosity = 1
	Error   Verbosity = 2
	Warning Verbosity = 3
	Info    Verbosity = 4
	Debug0  Verbosity = 5
	Debug1  Verbosity = 6
)

// zapLevel maps a Verbosity to the zap level it unlocks. zap has no
// distinct FATAL-vs-ERROR enable threshold below error, so Quiet and
// Fatal both disable every level below panic.
func (v Verbosity) zapLevel() zapcore.Level {
	switch {
	case v <= Fatal:
		return zapcore.PanicLevel
	case v == Error:
		return zapcore.ErrorLevel
	case v == Warning:
		return zapcore.WarnLevel
	case v == Info:
		return zapcore.InfoLevel
	default: // Debug0, Debug1
		return zapcore.DebugLevel
	}
}

// InitLogger configures the process logger at the given verbosity,
// writing to both stdout and a rotated file at path (ignored when
// path is empty).
func InitLogger(verbosity Verbosity, path string, maxSizeMB, maxBackups, maxAgeDays int) {
	level := verbosity.zapLevel()
	encoder := getEncoder()

	var sinks []zapcore.Core
	sinks = append(sinks, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	if path != "" {
		sinks = append(sinks, zapcore.NewCore(encoder, getLogWriter(path, maxSizeMB, maxBackups, maxAgeDays), level))
	}

	core := zapcore.NewTee(sinks...)
	logger := zap.New(core, zap.AddCaller())
	Sugar = logger.Sugar()
}

func getEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func getLogWriter(path string, maxSizeMB, maxBackups, maxAgeDays int) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	})
}
