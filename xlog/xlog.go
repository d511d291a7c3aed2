package xlog

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	timeKey         = "time"
	EncodingJson    = "json"
	EncodingConsole = "console"
	FileMode        = "file"
	ConsoleMode     = "console"
	DiscardMode     = "discard"
)

var (
	atomicLogger *XLog
	mutex        sync.RWMutex
)

type (
	XLogConf struct {
		ServiceName string `yaml:"service_name"`
		// log path
		Path string `yaml:"path"`
		// log file name
		Filename string `yaml:"filename"`
		//	file, console or discard
		Mode string `yaml:"mode"`
		//	json or console
		Encoding   string `yaml:"encoding"`
		TimeFormat string `yaml:"time_format"`
		//	debug, info, error, warn, panic, fatal
		Level    string `yaml:"level"`
		Compress bool   `yaml:"compress"`
		KeepDays int    `yaml:"keep_days"`
		MaxSize  int    `yaml:"max_size"`
	}
	XLog struct {
		conf     XLogConf
		instance *zap.Logger
	}
)

func init() {
	conf := XLogConf{}
	defaultConf(&conf)
	atomicLogger = &XLog{conf: conf, instance: instance(conf)}
}

// Load replaces the process logger. The previous logger is flushed.
func Load(conf *XLogConf) {
	defaultConf(conf)
	next := &XLog{conf: *conf, instance: instance(*conf)}

	mutex.Lock()
	prev := atomicLogger
	atomicLogger = next
	mutex.Unlock()

	_ = prev.instance.Sync()
}

// Write returns the process logger.
func Write() *zap.Logger {
	mutex.RLock()
	defer mutex.RUnlock()

	return atomicLogger.instance
}

// Named returns the process logger scoped to a component.
func Named(component string) *zap.Logger {
	return Write().Named(component)
}

// Conf returns the configuration of the process logger.
func Conf() XLogConf {
	mutex.RLock()
	defer mutex.RUnlock()

	return atomicLogger.conf
}

// Sync flushes the process logger.
func Sync() error {
	return Write().Sync()
}

func instance(conf XLogConf) *zap.Logger {
	if conf.Mode == DiscardMode {
		return zap.NewNop()
	}
	opts := []zap.Option{
		zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel),
	}
	if len(conf.ServiceName) > 0 {
		opts = append(opts, zap.Fields(zap.String("service", conf.ServiceName)))
	}

	write := zapcore.Lock(os.Stdout)
	if conf.Mode == FileMode {
		write = rotate(conf)
	}

	// unknown levels fall back to debug
	level, err := zapcore.ParseLevel(conf.Level)
	if err != nil {
		level = zap.DebugLevel
	}
	return zap.New(zapcore.NewCore(encoder(conf), write, level), opts...)
}

func rotate(conf XLogConf) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename: filepath.Join(conf.Path, conf.Filename),
		Compress: conf.Compress,
		MaxAge:   conf.KeepDays,
		MaxSize:  conf.MaxSize,
	})
}

func encoder(conf XLogConf) zapcore.Encoder {
	econf := zap.NewProductionEncoderConfig()
	econf.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format(conf.TimeFormat))
	}
	if conf.Level == "debug" && conf.Mode != FileMode {
		econf.EncodeLevel = zapcore.LowercaseColorLevelEncoder
	} else {
		econf.EncodeLevel = zapcore.LowercaseLevelEncoder
	}
	econf.TimeKey = timeKey
	if conf.Encoding == EncodingJson {
		return zapcore.NewJSONEncoder(econf)
	}
	return zapcore.NewConsoleEncoder(econf)
}

func defaultConf(conf *XLogConf) {
	if len(conf.Path) == 0 {
		wd, _ := os.Getwd()
		conf.Path = filepath.Join(wd, "logs")
	}

	if len(conf.Level) == 0 {
		conf.Level = "debug"
	}

	if len(conf.Filename) == 0 {
		conf.Filename = "xalloc.log"
	}

	if len(conf.Encoding) == 0 {
		conf.Encoding = EncodingConsole
	}

	if len(conf.TimeFormat) == 0 {
		conf.TimeFormat = "2006-01-02 15:04:05"
	}
}
