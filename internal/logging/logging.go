package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvProd  = "prod"
	EnvDev   = "dev"
	EnvLocal = "local"
)

// New builds the process logger. prod and dev write JSON lines, local writes
// human-readable console output. level is a zerolog level name.
func New(env, level string) (zerolog.Logger, error) {
	return newLogger(os.Stdout, env, level)
}

func newLogger(out io.Writer, env, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parsing log level %q: %w", level, err)
	}

	w := out
	switch env {
	case EnvProd, EnvDev:
	case EnvLocal:
		cw := zerolog.NewConsoleWriter()
		cw.TimeFormat = time.DateTime
		cw.Out = out
		w = cw
	default:
		return zerolog.Nop(), fmt.Errorf("unknown env: %s", env)
	}

	ctx := zerolog.New(w).Level(lvl).With().Timestamp()
	if env != EnvProd {
		ctx = ctx.Caller()
	}
	return ctx.Logger(), nil
}

// Component returns a child logger tagged with the component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
