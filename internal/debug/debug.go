package debug

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	output = &switchWriter{w: io.Discard}
	logger = zerolog.New(output).With().Timestamp().Caller().Logger()
)

// switchWriter lets loggers handed out before Init follow later output changes.
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

// Init opens the debug log file and points every logger at it.
// Only the first call has an effect. The terminal belongs to the UI, so logs
// never go to stdout or stderr.
func Init(path string, verbose bool) error {
	var initErr error
	once.Do(func() {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			initErr = err
			return
		}
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		SetOutput(f, level)
	})
	return initErr
}

// SetOutput replaces the logger destination and the minimum level.
func SetOutput(w io.Writer, level zerolog.Level) {
	output.set(w)
	zerolog.SetGlobalLevel(level)
}

// Component returns a logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
