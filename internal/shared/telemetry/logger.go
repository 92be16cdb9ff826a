package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level orders log severities; lines below the configured level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// ParseLevel maps LOG_LEVEL values to a Level. Unknown values mean info.
func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var (
	outMu sync.Mutex
	out   io.Writer = os.Stdout
	minLevel        = LevelInfo
)

// SetOutput redirects log lines and returns a func restoring the previous writer.
func SetOutput(w io.Writer) func() {
	outMu.Lock()
	prev := out
	out = w
	outMu.Unlock()
	return func() {
		outMu.Lock()
		out = prev
		outMu.Unlock()
	}
}

// SetLevel sets the minimum level written.
func SetLevel(l Level) {
	outMu.Lock()
	minLevel = l
	outMu.Unlock()
}

func Debug(msg string, fields map[string]any) { write(LevelDebug, msg, fields) }

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) { write(LevelInfo, msg, fields) }

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) { write(LevelWarn, msg, fields) }

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) { write(LevelError, msg, fields) }

// Logger carries fields merged into every line it writes.
type Logger struct {
	fields map[string]any
}

// With returns a Logger that adds fields to each line. Call-site fields win on conflict.
func With(fields map[string]any) Logger {
	return Logger{fields: fields}
}

func (l Logger) Debug(msg string, fields map[string]any) { write(LevelDebug, msg, l.merge(fields)) }
func (l Logger) Info(msg string, fields map[string]any)  { write(LevelInfo, msg, l.merge(fields)) }
func (l Logger) Warn(msg string, fields map[string]any)  { write(LevelWarn, msg, l.merge(fields)) }
func (l Logger) Error(msg string, fields map[string]any) { write(LevelError, msg, l.merge(fields)) }

func (l Logger) merge(fields map[string]any) map[string]any {
	if len(l.fields) == 0 {
		return fields
	}
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}

func write(level Level, msg string, fields map[string]any) {
	outMu.Lock()
	defer outMu.Unlock()
	if level < minLevel {
		return
	}

	entry := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		if err, ok := v.(error); ok && err != nil {
			v = err.Error()
		}
		entry[k] = v
	}
	ts := time.Now().UTC().Format(time.RFC3339)
	entry["ts"] = ts
	entry["level"] = level.String()
	entry["msg"] = msg

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(out, `{"ts":"%s","level":"error","msg":"logger marshal failed","err":%q}`+"\n", ts, err.Error())
		return
	}
	fmt.Fprintln(out, string(data))
}
