package device

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"github.com/warpdl/warpcap/pkg/capture"
)

// FileSource replays frames stored as files in a directory, one file per
// capture, cycling through them in name order.
type FileSource struct {
	fs   afero.Fs
	dir  string
	exts map[string]struct{}

	mu     sync.Mutex
	frames []string
	next   int
	seq    uint64
}

// FileSourceOption configures a FileSource.
type FileSourceOption func(*FileSource)

// WithExtensions restricts frames to files with the given extensions
// (e.g. ".jpg", ".raw"). Matching is case-insensitive.
func WithExtensions(exts ...string) FileSourceOption {
	return func(f *FileSource) {
		for _, e := range exts {
			e = strings.ToLower(e)
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			f.exts[e] = struct{}{}
		}
	}
}

// NewFileSource scans dir on fs and returns a source over its regular
// files. It fails if the directory cannot be read or holds no frames.
func NewFileSource(fs afero.Fs, dir string, opts ...FileSourceOption) (*FileSource, error) {
	f := &FileSource{
		fs:   fs,
		dir:  dir,
		exts: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.Rescan(); err != nil {
		return nil, err
	}
	return f, nil
}

// Rescan re-reads the directory listing and restarts from the first frame.
func (f *FileSource) Rescan() error {
	entries, err := afero.ReadDir(f.fs, f.dir)
	if err != nil {
		return fmt.Errorf("read frame dir %s: %w", f.dir, err)
	}
	frames := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Mode().IsRegular() {
			continue
		}
		if len(f.exts) > 0 {
			if _, ok := f.exts[strings.ToLower(filepath.Ext(e.Name()))]; !ok {
				continue
			}
		}
		frames = append(frames, filepath.Join(f.dir, e.Name()))
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frames in %s", f.dir)
	}
	sort.Strings(frames)

	f.mu.Lock()
	f.frames = frames
	f.next = 0
	f.mu.Unlock()
	return nil
}

// Len returns the number of frames in the rotation.
func (f *FileSource) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

// Capture reads the next frame file. A missing or unreadable file fails
// with capture.ErrCaptureFailed; the rotation still advances.
func (f *FileSource) Capture(ctx context.Context) (*capture.Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	path := f.frames[f.next]
	f.next = (f.next + 1) % len(f.frames)
	f.seq++
	seq := f.seq
	f.mu.Unlock()

	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", capture.ErrCaptureFailed, path, err)
	}
	return capture.NewPayload(path, seq, data), nil
}

var _ capture.Operation = (*FileSource)(nil)
