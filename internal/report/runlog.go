package report

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// RunLog is the run-time line log. Sinks come from the configuration's
// log_to key: "console" writes to the console writer, "file" appends to
// log_path. With no sinks the log is discarded.
type RunLog struct {
	*log.Logger
	file *os.File
}

// NewRunLog builds a log writing to the requested sinks. console defaults
// to stderr when nil.
func NewRunLog(sinks []string, logPath string, console io.Writer) (*RunLog, error) {
	if console == nil {
		console = os.Stderr
	}

	rl := &RunLog{}
	var writers []io.Writer
	for _, sink := range sinks {
		switch sink {
		case "console":
			writers = append(writers, console)
		case "file":
			dir := filepath.Dir(logPath)
			if dir != "" && dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return nil, fmt.Errorf("report: creating log directory: %w", err)
				}
			}
			f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return nil, fmt.Errorf("report: opening log file: %w", err)
			}
			rl.file = f
			writers = append(writers, f)
		}
	}

	var w io.Writer = io.Discard
	if len(writers) == 1 {
		w = writers[0]
	} else if len(writers) > 1 {
		w = io.MultiWriter(writers...)
	}

	rl.Logger = log.New(w, "", log.LstdFlags|log.Lmicroseconds)
	return rl, nil
}

// Close closes the file sink, if any.
func (rl *RunLog) Close() error {
	if rl.file != nil {
		return rl.file.Close()
	}
	return nil
}
