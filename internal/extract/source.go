package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
)

// Source is a workbook to extract from.
type Source interface {
	// Name identifies the workbook in logs and errors.
	Name() string
	// Open returns the workbook bytes and their size, or -1 when unknown.
	Open() (io.ReadCloser, int64, error)
}

// FileSource reads a workbook from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return filepath.Base(s.Path) }

func (s FileSource) Open() (io.ReadCloser, int64, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// ReaderSource reads a workbook from memory or any other stream.
type ReaderSource struct {
	FileName string
	Reader   io.Reader
}

// BytesSource wraps an in-memory workbook.
func BytesSource(name string, data []byte) ReaderSource {
	return ReaderSource{FileName: name, Reader: bytes.NewReader(data)}
}

func (s ReaderSource) Name() string { return s.FileName }

func (s ReaderSource) Open() (io.ReadCloser, int64, error) {
	if s.Reader == nil {
		return nil, 0, fmt.Errorf("no reader provided")
	}
	if l, ok := s.Reader.(interface{ Len() int }); ok {
		return io.NopCloser(s.Reader), int64(l.Len()), nil
	}
	return io.NopCloser(s.Reader), -1, nil
}

// readLimited reads the whole source, failing once more than max bytes arrive.
func readLimited(src Source, max int64) ([]byte, error) {
	rc, size, err := src.Open()
	if err != nil {
		return nil, &core.ExtractError{File: src.Name(), Err: err}
	}
	defer rc.Close()

	if max > 0 && size > max {
		return nil, &core.ExtractError{
			File: src.Name(),
			Err:  fmt.Errorf("%w: %d bytes exceeds limit of %d", core.ErrFileTooLarge, size, max),
		}
	}

	r := io.Reader(rc)
	if max > 0 {
		r = io.LimitReader(rc, max+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &core.ExtractError{File: src.Name(), Err: err}
	}
	if max > 0 && int64(len(data)) > max {
		return nil, &core.ExtractError{
			File: src.Name(),
			Err:  fmt.Errorf("%w: exceeds limit of %d bytes", core.ErrFileTooLarge, max),
		}
	}
	return data, nil
}
