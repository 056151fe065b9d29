package git

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
)

// fsStats counts the filesystem calls made while an observer is attached.
type fsStats struct {
	mkdir int
	stat  int
	chmod int
	bytes int64
}

// fsObserver receives the file-level events of an instrumentedFS.
type fsObserver struct {
	stats fsStats

	// touched is called the first time a path is written or removed.
	touched func(path string)
	seen    map[string]bool
}

func newFSObserver(touched func(path string)) *fsObserver {
	return &fsObserver{touched: touched, seen: make(map[string]bool)}
}

func (o *fsObserver) touch(path string) {
	path = filepath.ToSlash(filepath.Clean(path))
	if o.seen[path] {
		return
	}
	o.seen[path] = true
	if o.touched != nil {
		o.touched(path)
	}
}

// instrumentedFS wraps a billy.Filesystem so that operations driven by the
// engine (checkout, reset, pack download) can be observed. With no observer
// attached it is a transparent pass-through.
type instrumentedFS struct {
	billy.Filesystem
	observer *fsObserver
}

func newInstrumentedFS(fs billy.Filesystem) *instrumentedFS {
	return &instrumentedFS{Filesystem: fs}
}

// observe attaches o until the returned function is called.
func (f *instrumentedFS) observe(o *fsObserver) func() {
	f.observer = o
	return func() { f.observer = nil }
}

// Capabilities reports the capabilities of the wrapped filesystem.
func (f *instrumentedFS) Capabilities() billy.Capability {
	return billy.Capabilities(f.Filesystem)
}

const writeFlags = os.O_WRONLY | os.O_RDWR | os.O_CREATE | os.O_TRUNC | os.O_APPEND

func (f *instrumentedFS) Create(filename string) (billy.File, error) {
	file, err := f.Filesystem.Create(filename)
	if err != nil || f.observer == nil {
		return file, err
	}
	f.observer.touch(filename)
	return file, nil
}

func (f *instrumentedFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	file, err := f.Filesystem.OpenFile(filename, flag, perm)
	if err != nil || f.observer == nil || flag&writeFlags == 0 {
		return file, err
	}
	f.observer.touch(filename)
	return file, nil
}

// TempFile counts the bytes written to the file. Packs received from a
// remote are streamed into temporary files before being renamed in place.
func (f *instrumentedFS) TempFile(dir, prefix string) (billy.File, error) {
	file, err := f.Filesystem.TempFile(dir, prefix)
	if err != nil || f.observer == nil {
		return file, err
	}
	return &countingFile{File: file, stats: &f.observer.stats}, nil
}

func (f *instrumentedFS) Remove(filename string) error {
	isDir := false
	if f.observer != nil {
		if fi, err := f.Filesystem.Lstat(filename); err == nil && fi.IsDir() {
			isDir = true
		}
	}

	if err := f.Filesystem.Remove(filename); err != nil {
		return err
	}

	// Empty directories pruned after a delete are not checkout steps.
	if f.observer != nil && !isDir {
		f.observer.touch(filename)
	}
	return nil
}

func (f *instrumentedFS) Stat(filename string) (os.FileInfo, error) {
	if f.observer != nil {
		f.observer.stats.stat++
	}
	return f.Filesystem.Stat(filename)
}

func (f *instrumentedFS) Lstat(filename string) (os.FileInfo, error) {
	if f.observer != nil {
		f.observer.stats.stat++
	}
	return f.Filesystem.Lstat(filename)
}

func (f *instrumentedFS) MkdirAll(filename string, perm os.FileMode) error {
	if f.observer != nil {
		f.observer.stats.mkdir++
	}
	return f.Filesystem.MkdirAll(filename, perm)
}

// Chmod forwards to the wrapped filesystem when it supports permission
// changes and is a no-op otherwise.
func (f *instrumentedFS) Chmod(name string, mode os.FileMode) error {
	if f.observer != nil {
		f.observer.stats.chmod++
	}
	if ch, ok := f.Filesystem.(interface {
		Chmod(string, os.FileMode) error
	}); ok {
		return ch.Chmod(name, mode)
	}
	return nil
}

// countingFile tallies bytes written through it.
type countingFile struct {
	billy.File
	stats *fsStats
}

func (c *countingFile) Write(p []byte) (int, error) {
	n, err := c.File.Write(p)
	c.stats.bytes += int64(n)
	return n, err
}
