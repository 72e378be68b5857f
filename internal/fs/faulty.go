package fs

import (
	"errors"
	"os"
	"sync"
)

// ErrInjected is the default error returned by injected faults.
var ErrInjected = errors.New("injected fault")

// FaultyFS wraps a FileSystem and injects failures into write paths.
// The zero configuration injects nothing.
type FaultyFS struct {
	FS FileSystem

	mu             sync.Mutex
	failAfterBytes int64 // fail writes once this many bytes were written; -1 disables
	failOnSync     bool
	failOnRename   bool
	written        int64
}

// NewFaultyFS creates a FaultyFS wrapping fs (or Default if nil).
func NewFaultyFS(fsys FileSystem) *FaultyFS {
	if fsys == nil {
		fsys = Default
	}
	return &FaultyFS{FS: fsys, failAfterBytes: -1}
}

// FailAfterBytes makes writes fail once n bytes were written in total.
func (f *FaultyFS) FailAfterBytes(n int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAfterBytes = n
}

// FailOnSync makes every Sync call fail.
func (f *FaultyFS) FailOnSync() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOnSync = true
}

// FailOnRename makes every Rename call fail.
func (f *FaultyFS) FailOnRename() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOnRename = true
}

func (f *FaultyFS) CreateTemp(dir, pattern string) (File, error) {
	file, err := f.FS.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fs: f}, nil
}

func (f *FaultyFS) Remove(name string) error { return f.FS.Remove(name) }

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	f.mu.Lock()
	fail := f.failOnRename
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.FS.Rename(oldpath, newpath)
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error) { return f.FS.Stat(name) }

func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	return f.FS.MkdirAll(path, perm)
}

func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error) { return f.FS.ReadDir(name) }

type faultyFile struct {
	File
	fs *FaultyFS
}

func (f *faultyFile) Write(p []byte) (int, error) {
	f.fs.mu.Lock()
	limit := f.fs.failAfterBytes
	if limit >= 0 && f.fs.written+int64(len(p)) > limit {
		f.fs.mu.Unlock()
		return 0, ErrInjected
	}
	f.fs.written += int64(len(p))
	f.fs.mu.Unlock()
	return f.File.Write(p)
}

func (f *faultyFile) Sync() error {
	f.fs.mu.Lock()
	fail := f.fs.failOnSync
	f.fs.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.File.Sync()
}
