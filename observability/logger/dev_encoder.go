package logger

import (
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// devEncoder prints the console line with a colored level and any
// structured fields as indented JSON below it.
//
// The embedded JSON encoder accumulates fields added through With, the
// console encoder never carries fields.
type devEncoder struct {
	zapcore.Encoder
	console zapcore.Encoder
	pool    buffer.Pool
}

func newDevEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return &devEncoder{
		Encoder: zapcore.NewJSONEncoder(cfg),
		console: zapcore.NewConsoleEncoder(cfg),
		pool:    buffer.NewPool(),
	}
}

func (e *devEncoder) Clone() zapcore.Encoder {
	return &devEncoder{
		Encoder: e.Encoder.Clone(),
		console: e.console,
		pool:    e.pool,
	}
}

func (e *devEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line, err := e.console.EncodeEntry(entry, nil)
	if err != nil {
		return nil, err
	}
	out := colorizeLevel(strings.TrimRight(line.String(), "\n"), entry.Level)
	line.Free()

	fieldBuf, err := e.Encoder.EncodeEntry(entry, fields)
	if err != nil {
		return nil, err
	}
	out += formatFields(fieldBuf.Bytes())
	fieldBuf.Free()

	buf := e.pool.Get()
	buf.AppendString(out)
	buf.AppendString("\n")
	return buf, nil
}

// formatFields drops the keys already shown on the console line and indents
// whatever remains.
func formatFields(raw []byte) string {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return " " + strings.TrimSpace(string(raw))
	}

	for _, k := range []string{messageKey, levelKey, timeKey, nameKey} {
		delete(fields, k)
	}
	if len(fields) == 0 {
		return ""
	}

	pretty, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return " " + strings.TrimSpace(string(raw))
	}
	return "\n" + string(pretty)
}

func colorizeLevel(line string, level zapcore.Level) string {
	var c *color.Color

	switch level {
	case zapcore.DebugLevel:
		c = color.New(color.FgCyan)
	case zapcore.InfoLevel:
		c = color.New(color.FgGreen)
	case zapcore.WarnLevel:
		c = color.New(color.FgYellow)
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		c = color.New(color.FgRed, color.Bold)
	case zapcore.InvalidLevel:
		c = color.New(color.FgMagenta)
	default:
		return line
	}

	lvl := level.CapitalString()
	return strings.Replace(line, lvl, c.Sprint(lvl), 1)
}
