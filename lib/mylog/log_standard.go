package mylog

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MarcGrol/smartshop/lib/mycontext"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newStandardLogger
	}
}

type standardLogger struct {
	componentName string
	sugar         *zap.SugaredLogger
}

func newStandardLogger(componentName string) Logger {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.DisableStacktrace = true

	logger, err := config.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating logger %s: %s\n", componentName, err)
		logger = zap.NewNop()
	}

	return standardLogger{
		componentName: componentName,
		sugar:         logger.Named(componentName).Sugar(),
	}
}

func (l standardLogger) Log(c context.Context, traceLabel string, severity Severity, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	fields := []any{"aggregate", traceLabel}
	if trace := mycontext.TraceFromContext(c); trace != "" {
		fields = append(fields, "trace", trace)
	}

	switch severity {
	case SeverityDebug:
		l.sugar.Debugw(msg, fields...)
	case SeverityWarn:
		l.sugar.Warnw(msg, fields...)
	case SeverityError:
		l.sugar.Errorw(msg, fields...)
	default:
		l.sugar.Infow(msg, fields...)
	}
}
