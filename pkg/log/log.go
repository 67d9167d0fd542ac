package log

import (
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/lestrrat-go/file-rotatelogs"
	"github.com/pkg/errors"
)

// DefaultPattern 默认的日志文件名模式
const DefaultPattern = "adboard-%Y-%m-%d.log"

// Config 日志配置
type Config struct {
	Path           string `toml:"path"`
	RotationTime   string `toml:"rotation_time"`
	MaxAge         string `toml:"max_age"`
	DefaultPattern string `toml:"default_pattern"`
	Level          string `toml:"level"`
	Format         string `toml:"format"`  // text 或 json
	Console        *bool  `toml:"console"` // 同时输出到 stderr，默认开启
}

// Validate 验证配置，未填写的字段使用默认值
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Path) == "" {
		return errors.New("path is required")
	}

	if cfg.RotationTime == "" {
		cfg.RotationTime = "24h"
	}
	if _, err := time.ParseDuration(cfg.RotationTime); err != nil {
		return errors.WithMessage(err, "rotation_time is invalid")
	}

	if cfg.MaxAge == "" {
		cfg.MaxAge = "168h"
	}
	if _, err := time.ParseDuration(cfg.MaxAge); err != nil {
		return errors.WithMessage(err, "max_age is invalid")
	}

	if strings.TrimSpace(cfg.DefaultPattern) == "" {
		cfg.DefaultPattern = DefaultPattern
	}

	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(cfg.Level)) {
		return errors.New("invalid level: " + cfg.Level)
	}

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if !slices.Contains([]string{"text", "json"}, strings.ToLower(cfg.Format)) {
		return errors.New("invalid format: " + cfg.Format)
	}

	return nil
}

var fileWriter io.Closer

// Init 初始化日志系统，设置 slog 默认 logger
func Init(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	rl, err := configureFileLogger(cfg)
	if err != nil {
		return errors.WithMessage(err, "failed to configure file logger")
	}

	var out io.Writer = rl
	if cfg.Console == nil || *cfg.Console {
		// stdout 留给 MCP stdio 协议
		out = io.MultiWriter(os.Stderr, rl)
	}

	slog.SetDefault(slog.New(NewHandler(out, cfg.Level, cfg.Format)))

	if fileWriter != nil {
		_ = fileWriter.Close()
	}
	fileWriter = rl

	return nil
}

// NewHandler 创建与 Init 相同格式的 handler
func NewHandler(out io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: mapLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(a.Key, t.Format("2006-01-02 15:04:05.000000"))
				}
			}
			return a
		},
	}

	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(out, opts)
	}
	return slog.NewTextHandler(out, opts)
}

// Close 关闭日志文件
func Close() error {
	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	return err
}

func configureFileLogger(cfg Config) (*rotatelogs.RotateLogs, error) {
	rotationTime, err := time.ParseDuration(cfg.RotationTime)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse rotation_time")
	}

	maxAge, err := time.ParseDuration(cfg.MaxAge)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse max_age")
	}

	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create log directory")
	}

	pattern := cfg.Path + "/" + cfg.DefaultPattern

	return rotatelogs.New(
		pattern,
		rotatelogs.WithRotationTime(rotationTime),
		rotatelogs.WithMaxAge(maxAge),
	)
}

func mapLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger 返回带 module 字段的 logger
func Logger(module string) *slog.Logger {
	return slog.Default().With("module", module)
}
