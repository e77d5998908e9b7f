package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config opciones para el logger.
type Config struct {
	Env     string    // development -> consola legible; otro -> JSON
	Level   string    // trace, debug, info, warn, error
	Service string    // se agrega como campo "servicio" a cada entrada
	Output  io.Writer // por defecto os.Stdout
}

// Logger wrapper sobre zerolog. Lo reciben el servicio de lotes, los handlers y el arranque.
type Logger struct {
	zl zerolog.Logger
}

// New crea un logger estructurado y lo instala como logger global de zerolog.
func New(cfg Config) *Logger {
	w := cfg.Output
	if w == nil {
		w = os.Stdout
	}
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("servicio", cfg.Service)
	}
	zl := ctx.Logger()
	log.Logger = zl

	return &Logger{zl: zl}
}

// Nop devuelve un logger que descarta todo.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// ParseLevel interpreta el nivel sin distinguir mayúsculas; vacío o desconocido es info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) Trace() *zerolog.Event { return l.zl.Trace() }
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// Operation devuelve un sublogger con la operación del libro fijada en el campo "operacion".
func (l *Logger) Operation(op string) *Logger {
	return &Logger{zl: l.zl.With().Str("operacion", op).Logger()}
}

// Zerolog devuelve el logger interno por si se necesita la API directa.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}
