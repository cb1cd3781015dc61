package imgconv

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Stage names the step of a conversion that failed.
type Stage int

const (
	StageInputFormat Stage = iota + 1
	StageOutputFormat
	StageLoad
	StageSave
)

func (s Stage) String() string {
	switch s {
	case StageInputFormat:
		return "input format"
	case StageOutputFormat:
		return "output format"
	case StageLoad:
		return "load"
	case StageSave:
		return "save"
	}
	return "unknown stage"
}

// ErrUnknownFormat is wrapped by a ConvertError when a path has no known
// image extension.
var ErrUnknownFormat = errors.New("imgconv: unknown format")

// ConvertError describes a failed conversion.
type ConvertError struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *ConvertError) Unwrap() error { return e.Err }

// ExitCode returns the process exit status for the failed stage.
func (e *ConvertError) ExitCode() int {
	switch e.Stage {
	case StageInputFormat:
		return 2
	case StageOutputFormat:
		return 3
	case StageLoad:
		return 4
	case StageSave:
		return 5
	}
	return 1
}

// ExitCode maps the result of Convert to a process exit status: 0 for
// nil, the stage code for a ConvertError, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *ConvertError
	if errors.As(err, &ce) {
		return ce.ExitCode()
	}
	return 1
}

// Converter converts image files between formats.
type Converter struct {
	Options
	// Logger receives debug records for each conversion. Nil discards.
	Logger *slog.Logger
}

func (c *Converter) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

// Convert loads in and saves it as out. Both formats are resolved from
// the file extensions before any file is touched.
func (c *Converter) Convert(in, out string) error {
	inFormat := Resolve(in)
	if inFormat == Unknown {
		return &ConvertError{Stage: StageInputFormat, Path: in, Err: ErrUnknownFormat}
	}
	outFormat := Resolve(out)
	if outFormat == Unknown {
		return &ConvertError{Stage: StageOutputFormat, Path: out, Err: ErrUnknownFormat}
	}

	log := c.logger()
	r, err := c.HandlerFor(inFormat).Load(in)
	if err != nil {
		return &ConvertError{Stage: StageLoad, Path: in, Err: err}
	}
	log.Debug("loaded image", "path", in, "format", inFormat, "width", r.Width, "height", r.Height)

	if err := c.HandlerFor(outFormat).Save(out, r); err != nil {
		return &ConvertError{Stage: StageSave, Path: out, Err: err}
	}
	log.Debug("saved image", "path", out, "format", outFormat)
	return nil
}
