// Package logger builds the structured, levelled logger used by every
// command, on top of log/slog.
//
// Local runs get pterm's colourised handler; production gets JSON lines for
// log aggregators. When a MongoDB URI is configured every record is also
// shipped to a collection, which leaves an audit trail of who seeded what:
//
//	log, closeLog, err := logger.New(logger.Options{Env: "production", MongoURI: uri})
//	defer closeLog()
//	log.Info("seed applied", "seed", "20260101120000_users")
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/pterm/pterm"
)

// Options selects the handler chain.
type Options struct {
	Env     string // "production"/"prod" selects JSON output
	Verbose bool   // include debug records
	Writer  io.Writer

	MongoURI        string
	MongoDB         string
	MongoCollection string
}

// New returns a logger and a close func that flushes any asynchronous sink.
// The close func is never nil.
func New(opts Options) (*slog.Logger, func(), error) {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	switch opts.Env {
	case "production", "prod":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}) // structured JSON for log aggregators
	default:
		pl := pterm.DefaultLogger.WithWriter(w).WithLevel(pterm.LogLevelInfo)
		if opts.Verbose {
			pl = pl.WithLevel(pterm.LogLevelDebug)
		}
		handler = pterm.NewSlogHandler(pl)
	}

	closeFn := func() {}
	if opts.MongoURI != "" {
		mh, err := NewMongoHandler(opts.MongoURI, opts.MongoDB, opts.MongoCollection)
		if err != nil {
			return nil, closeFn, err
		}
		handler = NewMultiHandler(handler, mh)
		closeFn = mh.Close
	}

	return slog.New(handler), closeFn, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
