package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrDestinationIsDir is reported when the finalize target is a directory.
var ErrDestinationIsDir = errors.New("destination is a directory")

// Outcome tells the caller what finalize actually did with the upload.
type Outcome int

const (
	OutcomeMoved Outcome = iota
	OutcomeAlreadyInPlace
	OutcomeNoChunks
	OutcomeMoveFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMoved:
		return "moved"
	case OutcomeAlreadyInPlace:
		return "already-in-place"
	case OutcomeNoChunks:
		return "no-chunks"
	case OutcomeMoveFailed:
		return "move-failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Completed reports whether the destination holds the uploaded content.
func (o Outcome) Completed() bool {
	return o == OutcomeMoved || o == OutcomeAlreadyInPlace
}

// Completion is the result of finalizing an upload. Path is always the
// requested destination, whether or not anything was written there.
type Completion struct {
	Identity Identity
	Path     string
	Outcome  Outcome
	Size     int64
	// Err is set when Outcome is OutcomeMoveFailed.
	Err error
}

// Assembler moves a finished chunk file into its destination.
type Assembler struct {
	fs afero.Fs
}

func NewAssembler(fsys afero.Fs) *Assembler {
	return &Assembler{fs: fsys}
}

// Move renames src onto dst, creating dst's parent directories. An existing
// regular file at dst is replaced; a directory is refused. When rename fails
// (e.g. across devices) the content is copied and src removed.
func (a *Assembler) Move(src, dst string) error {
	if info, err := a.fs.Stat(dst); err == nil && info.IsDir() {
		return fmt.Errorf("%s: %w", dst, ErrDestinationIsDir)
	}
	if err := a.fs.MkdirAll(filepath.Dir(dst), 0o770); err != nil {
		return fmt.Errorf("create destination dir: %w", err)
	}

	if err := a.fs.Rename(src, dst); err == nil {
		return nil
	}

	if err := a.copy(src, dst); err != nil {
		return err
	}
	if err := a.fs.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

func (a *Assembler) copy(src, dst string) error {
	in, err := a.fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := a.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = a.fs.Remove(dst)
		return fmt.Errorf("copy to destination: %w", err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		_ = a.fs.Remove(dst)
		return fmt.Errorf("sync destination: %w", err)
	}
	return out.Close()
}
