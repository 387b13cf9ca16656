// Package logging provides structured JSON logging with trace IDs.
//
// All output goes to stderr: stdout belongs to the stdio JSON-RPC
// transport and must carry nothing but protocol frames.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger is the structured logging interface used across the server.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})

	// Context-aware variants pick up the trace ID carried by ctx.
	DebugContext(ctx context.Context, msg string, fields ...interface{})
	InfoContext(ctx context.Context, msg string, fields ...interface{})
	WarnContext(ctx context.Context, msg string, fields ...interface{})
	ErrorContext(ctx context.Context, msg string, fields ...interface{})

	WithComponent(component string) Logger
	WithTraceID(traceID string) Logger
}

// Level is a log severity level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a level name to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

type contextKey string

// traceIDKey carries the request trace ID through a context.
const traceIDKey contextKey = "novaport_trace_id"

type entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

type jsonLogger struct {
	mu        *sync.Mutex
	out       io.Writer
	level     Level
	useJSON   bool
	component string
	traceID   string
}

// New creates a logger writing to stderr at the given level. JSON output
// is the default; set NOVAPORT_LOG_JSON=false for human-readable lines.
func New(level Level) Logger {
	useJSON := true
	if v := os.Getenv("NOVAPORT_LOG_JSON"); v == "false" || v == "0" {
		useJSON = false
	}
	return &jsonLogger{
		mu:      &sync.Mutex{},
		out:     os.Stderr,
		level:   level,
		useJSON: useJSON,
	}
}

// NewWithWriter creates a logger with an explicit destination (tests).
func NewWithWriter(level Level, out io.Writer, useJSON bool) Logger {
	return &jsonLogger{mu: &sync.Mutex{}, out: out, level: level, useJSON: useJSON}
}

func (l *jsonLogger) WithComponent(component string) Logger {
	c := *l
	c.component = component
	return &c
}

func (l *jsonLogger) WithTraceID(traceID string) Logger {
	c := *l
	c.traceID = traceID
	return &c
}

func (l *jsonLogger) Debug(msg string, fields ...interface{}) { l.log(LevelDebug, "", msg, fields) }
func (l *jsonLogger) Info(msg string, fields ...interface{})  { l.log(LevelInfo, "", msg, fields) }
func (l *jsonLogger) Warn(msg string, fields ...interface{})  { l.log(LevelWarn, "", msg, fields) }
func (l *jsonLogger) Error(msg string, fields ...interface{}) { l.log(LevelError, "", msg, fields) }

func (l *jsonLogger) DebugContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(LevelDebug, TraceID(ctx), msg, fields)
}

func (l *jsonLogger) InfoContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(LevelInfo, TraceID(ctx), msg, fields)
}

func (l *jsonLogger) WarnContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(LevelWarn, TraceID(ctx), msg, fields)
}

func (l *jsonLogger) ErrorContext(ctx context.Context, msg string, fields ...interface{}) {
	l.log(LevelError, TraceID(ctx), msg, fields)
}

func (l *jsonLogger) log(level Level, ctxTraceID, msg string, fields []interface{}) {
	if level < l.level {
		return
	}
	traceID := l.traceID
	if ctxTraceID != "" {
		traceID = ctxTraceID
	}

	var fieldMap map[string]interface{}
	if len(fields) > 0 {
		fieldMap = make(map[string]interface{}, len(fields)/2)
		for i := 0; i+1 < len(fields); i += 2 {
			fieldMap[fmt.Sprintf("%v", fields[i])] = fields[i+1]
		}
		if len(fields)%2 != 0 {
			fieldMap["extra"] = fields[len(fields)-1]
		}
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
		Component: l.component,
		TraceID:   traceID,
		Fields:    fieldMap,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.useJSON {
		data, err := json.Marshal(e)
		if err != nil {
			fmt.Fprintf(l.out, `{"level":"ERROR","message":"log marshal failed: %v"}`+"\n", err)
			return
		}
		fmt.Fprintln(l.out, string(data))
		return
	}

	parts := []string{e.Timestamp, "[" + e.Level + "]"}
	if e.Component != "" {
		parts = append(parts, e.Component+":")
	}
	parts = append(parts, e.Message)
	if e.TraceID != "" {
		parts = append(parts, "trace="+shortID(e.TraceID))
	}
	for k, v := range fieldMap {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	fmt.Fprintln(l.out, strings.Join(parts, " "))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(ParseLevel(os.Getenv("NOVAPORT_LOG_LEVEL")))
)

// SetDefault replaces the process-wide logger.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// Default returns the process-wide logger.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// WithComponent returns the default logger scoped to a component.
func WithComponent(component string) Logger { return Default().WithComponent(component) }

func Debug(msg string, fields ...interface{}) { Default().Debug(msg, fields...) }
func Info(msg string, fields ...interface{})  { Default().Info(msg, fields...) }
func Warn(msg string, fields ...interface{})  { Default().Warn(msg, fields...) }
func Error(msg string, fields ...interface{}) { Default().Error(msg, fields...) }

// NewTraceID mints a fresh trace ID.
func NewTraceID() string { return uuid.New().String() }

// WithTrace attaches a trace ID to ctx, minting one when empty.
func WithTrace(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = NewTraceID()
	}
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID extracts the trace ID from ctx, or "".
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}
