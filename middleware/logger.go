package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dzonerzy/snap-patterns/internal/pool"
	snapio "github.com/dzonerzy/snap-patterns/io"
)

var requestInfoPool = pool.NewPoolWithReset(
	func() *RequestInfo {
		return &RequestInfo{
			Metadata: make(map[string]any, 4),
		}
	},
	func(info *RequestInfo) {
		info.Pattern = ""
		info.Args = info.Args[:0]
		info.Values = info.Values[:0]
		info.StartTime = time.Time{}
		info.Duration = 0
		info.Error = nil
		for k := range info.Metadata {
			delete(info.Metadata, k)
		}
	},
)

// Logger logs every dispatch to the configured output.
func Logger(options ...MiddlewareOption) Middleware {
	config := DefaultConfig()
	for _, option := range options {
		option(config)
	}
	return LoggerWithWriter(logWriter(config.LogOutput), options...)
}

// LoggerWithWriter logs every dispatch to writer. A nil writer disables
// output.
func LoggerWithWriter(writer io.Writer, options ...MiddlewareOption) Middleware {
	config := DefaultConfig()
	for _, option := range options {
		option(config)
	}

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			if config.LogLevel == LogLevelNone || writer == nil {
				return next(ctx)
			}

			info := requestInfoPool.Get()
			defer requestInfoPool.Put(info)

			info.Pattern = patternText(ctx)
			info.Args = append(info.Args, ctx.Args()...)
			info.Values = append(info.Values, ctx.Values()...)
			info.StartTime = time.Now()
			if id, ok := ctx.Get("request_id").(string); ok {
				info.Metadata["request_id"] = id
			}

			if config.LogLevel >= LogLevelDebug {
				logRequest(writer, config, info, "START")
			}

			err := next(ctx)

			info.Duration = time.Since(info.StartTime)
			info.Error = err
			logRequest(writer, config, info, levelFor(err))
			return err
		}
	}
}

// LoggerWithIO reports dispatches through a terminal logger: start at debug,
// completion as success, failures as errors.
func LoggerWithIO(logger *snapio.Logger) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			pattern := patternText(ctx)
			logger.Debug("dispatch %s %s", pattern, strings.Join(ctx.Values(), " "))
			start := time.Now()
			err := next(ctx)
			if err != nil {
				logger.Error("%s failed after %s: %v", pattern, time.Since(start), err)
				return err
			}
			logger.Success("%s done in %s", pattern, time.Since(start))
			return nil
		}
	}
}

func levelFor(err error) string {
	if err != nil {
		return "ERROR"
	}
	return "SUCCESS"
}

func shouldLog(configLevel LogLevel, messageLevel string) bool {
	switch messageLevel {
	case "ERROR":
		return configLevel >= LogLevelError
	case "START":
		return configLevel >= LogLevelDebug
	default:
		return configLevel >= LogLevelInfo
	}
}

func logWriter(output LogOutput) io.Writer {
	switch output {
	case LogOutputStdout:
		return os.Stdout
	case LogOutputNone:
		return nil
	default:
		return os.Stderr
	}
}

func logRequest(writer io.Writer, config *MiddlewareConfig, info *RequestInfo, level string) {
	if !shouldLog(config.LogLevel, level) {
		return
	}
	switch config.LogFormat {
	case LogFormatJSON:
		writeJSONLog(writer, info, level, config)
	default:
		writeTextLog(writer, info, level, config)
	}
}

func writeTextLog(writer io.Writer, info *RequestInfo, level string, config *MiddlewareConfig) {
	buf := pool.GetBuffer(256)
	defer pool.PutBuffer(buf)

	*buf = append(*buf, '[')
	*buf = append(*buf, info.StartTime.Format("2006-01-02 15:04:05")...)
	*buf = append(*buf, "] "...)
	*buf = append(*buf, level...)
	*buf = append(*buf, " pattern="...)
	*buf = strconv.AppendQuote(*buf, info.Pattern)

	if info.Duration > 0 {
		*buf = append(*buf, " duration="...)
		*buf = append(*buf, info.Duration.String()...)
	}

	if config.IncludeArgs && len(info.Args) > 0 {
		*buf = append(*buf, " args="...)
		for i, arg := range info.Args {
			if i > 0 {
				*buf = append(*buf, ' ')
			}
			*buf = append(*buf, arg...)
		}
	}

	if len(info.Values) > 0 {
		*buf = append(*buf, " values="...)
		*buf = append(*buf, strconv.Itoa(len(info.Values))...)
	}

	if info.Error != nil {
		*buf = append(*buf, " error="...)
		*buf = strconv.AppendQuote(*buf, info.Error.Error())
	}

	*buf = append(*buf, '\n')

	//nolint:errcheck,gosec // Logging is best-effort; ignore write errors.
	writer.Write(*buf)
}

func writeJSONLog(writer io.Writer, info *RequestInfo, level string, config *MiddlewareConfig) {
	buf := pool.GetBuffer(512)
	defer pool.PutBuffer(buf)

	*buf = append(*buf, `{"timestamp":"`...)
	*buf = append(*buf, info.StartTime.Format(time.RFC3339)...)
	*buf = append(*buf, `","level":"`...)
	*buf = append(*buf, level...)
	*buf = append(*buf, `","pattern":`...)
	*buf = appendJSONString(*buf, info.Pattern)

	if info.Duration > 0 {
		*buf = append(*buf, `,"duration_ms":`...)
		*buf = strconv.AppendInt(*buf, info.Duration.Milliseconds(), 10)
	}

	if config.IncludeArgs && len(info.Args) > 0 {
		*buf = append(*buf, `,"args":`...)
		*buf = appendJSONStrings(*buf, info.Args)
	}

	if len(info.Values) > 0 {
		*buf = append(*buf, `,"values":`...)
		*buf = appendJSONStrings(*buf, info.Values)
	}

	if info.Error != nil {
		*buf = append(*buf, `,"error":`...)
		*buf = appendJSONString(*buf, info.Error.Error())
	}

	if len(info.Metadata) > 0 {
		if metadataJSON, err := marshalJSON(info.Metadata); err == nil {
			*buf = append(*buf, `,"metadata":`...)
			*buf = append(*buf, metadataJSON...)
		}
	}

	*buf = append(*buf, "}\n"...)

	//nolint:errcheck,gosec // Logging is best-effort; ignore write errors.
	writer.Write(*buf)
}

// marshalJSON is json.Marshal without HTML escaping, so patterns such as
// "<file>" stay readable.
func marshalJSON(v any) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(b.Bytes(), []byte{'\n'}), nil
}

func appendJSONString(buf []byte, s string) []byte {
	enc, _ := marshalJSON(s)
	return append(buf, enc...)
}

func appendJSONStrings(buf []byte, ss []string) []byte {
	buf = append(buf, '[')
	for i, s := range ss {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendJSONString(buf, s)
	}
	return append(buf, ']')
}

// DebugLogger logs start and completion of every dispatch.
func DebugLogger() Middleware {
	return Logger(WithLogLevel(LogLevelDebug))
}

// InfoLogger logs completions and errors.
func InfoLogger() Middleware {
	return Logger(WithLogLevel(LogLevelInfo))
}

// ErrorLogger logs only failures.
func ErrorLogger() Middleware {
	return Logger(WithLogLevel(LogLevelError))
}

// JSONLogger logs one JSON object per line.
func JSONLogger() Middleware {
	return Logger(WithLogFormat(LogFormatJSON))
}

// SilentLogger discards output.
func SilentLogger() Middleware {
	return Logger(func(config *MiddlewareConfig) {
		config.LogOutput = LogOutputNone
	})
}
