// internal/store/copy.go
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"loan-desk/internal/models"
)

// CopyFailedPrefix marks a document path whose copy into managed storage failed.
const CopyFailedPrefix = "COPY_FAILED:"

const copyChunkSize = 64 * 1024

var (
	ErrEmptySource  = errors.New("source document is empty")
	ErrSameFile     = errors.New("source and destination are the same file")
	ErrSizeMismatch = errors.New("copied size does not match source")
)

// CopyDocument copies src to dst in fixed-size chunks and verifies that the
// number of bytes written equals the source size. A failed copy removes the
// partial destination.
func CopyDocument(src, dst string) (err error) {
	if strings.TrimSpace(src) == "" {
		return fmt.Errorf("source path is empty")
	}
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return err
	}
	if srcAbs == dstAbs {
		return ErrSameFile
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("source %s is not a regular file", src)
	}
	if info.Size() == 0 {
		return ErrEmptySource
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create destination dir: %w", err)
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	written, err := copyChunks(out, in)
	if syncErr := out.Sync(); err == nil && syncErr != nil {
		err = syncErr
	}
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	if written != info.Size() {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrSizeMismatch, written, info.Size())
	}

	dstInfo, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("stat destination: %w", err)
	}
	if dstInfo.Size() != info.Size() {
		return fmt.Errorf("%w: destination has %d of %d bytes", ErrSizeMismatch, dstInfo.Size(), info.Size())
	}
	return nil
}

func copyChunks(w io.Writer, r io.Reader) (int64, error) {
	buf := make([]byte, copyChunkSize)
	var total int64
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			m, err := w.Write(buf[:n])
			total += int64(m)
			if err != nil {
				return total, err
			}
			if m != n {
				return total, io.ErrShortWrite
			}
		}
		if readErr == io.EOF {
			return total, nil
		}
		if readErr != nil {
			return total, readErr
		}
	}
}

// ManagedPath returns the managed-storage file name for one document.
func ManagedPath(dir, applicationID string, kind models.DocumentKind) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.jpg", applicationID, kind))
}

// IsCopyFailed reports whether path carries the copy failure marker.
func IsCopyFailed(path string) bool {
	return strings.HasPrefix(path, CopyFailedPrefix)
}

// stripCopyFailed returns the original source path behind a failure marker.
func stripCopyFailed(path string) string {
	return strings.TrimSpace(strings.TrimPrefix(path, CopyFailedPrefix))
}

func isUnder(path, dir string) bool {
	p, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	d, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(d, p)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
