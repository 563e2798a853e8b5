// Package sink provides grid.FileSink implementations for files on disk,
// arbitrary writers, and in-memory capture.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrInvalidFilename is returned for names that would escape the target
// directory.
var ErrInvalidFilename = errors.New("sink: invalid filename")

// DirSink writes each export into Dir. With Timestamp set the current time
// is inserted before the extension so repeated exports do not overwrite
// each other.
type DirSink struct {
	Dir       string
	Timestamp bool
	// Now replaces time.Now when set.
	Now func() time.Time
}

// NewDirSink returns a DirSink for dir.
func NewDirSink(dir string) *DirSink {
	return &DirSink{Dir: dir}
}

// Emit writes data to Dir/filename atomically via a temp file.
func (s *DirSink) Emit(ctx context.Context, filename, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := cleanName(filename)
	if err != nil {
		return err
	}
	if s.Timestamp {
		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		ext := filepath.Ext(name)
		name = strings.TrimSuffix(name, ext) + "_" + now().Format("20060102_150405") + ext
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, ".export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		return fmt.Errorf("rename export: %w", err)
	}
	return nil
}

// Path returns where a file with the given name would be written, ignoring
// Timestamp.
func (s *DirSink) Path(filename string) (string, error) {
	name, err := cleanName(filename)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, name), nil
}

func cleanName(filename string) (string, error) {
	name := filepath.Base(filename)
	if name == "." || name == ".." || name == string(filepath.Separator) || name != filename {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return name, nil
}

// WriterSink writes the file body to W and ignores the name.
type WriterSink struct {
	W io.Writer
}

// Emit writes data to W.
func (s WriterSink) Emit(ctx context.Context, _, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.W.Write(data)
	return err
}

// File is one captured emission.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// MemorySink records every emission.
type MemorySink struct {
	mu    sync.Mutex
	files []File
}

// Emit records a copy of the file.
func (s *MemorySink) Emit(_ context.Context, filename, mimeType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, File{
		Name:     filename,
		MimeType: mimeType,
		Data:     append([]byte(nil), data...),
	})
	return nil
}

// Files returns the recorded emissions in order.
func (s *MemorySink) Files() []File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]File(nil), s.files...)
}

// Last returns the most recent emission.
func (s *MemorySink) Last() (File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.files) == 0 {
		return File{}, false
	}
	return s.files[len(s.files)-1], true
}
