package trackstore

import (
	"os"
	"path/filepath"
	"time"

	"github.com/absfs/absfs"
)

// osFileSystem implements absfs.FileSystem over a real directory on
// disk, rooted at a fixed path. It is the production counterpart of
// the in-memory github.com/absfs/memfs filesystem used in tests: one
// method per absfs.FileSystem call, each delegating straight to the
// os package the same way the teacher's example and test fixtures did.
type osFileSystem struct {
	root string
}

// NewOSFileSystem returns an absfs.FileSystem rooted at dir. dir is
// created if it does not already exist.
func NewOSFileSystem(dir string) (absfs.FileSystem, error) {
	if err := ValidateDirectory(dir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &osFileSystem{root: dir}, nil
}

func (fs *osFileSystem) path(name string) string {
	return filepath.Join(fs.root, name)
}

func (fs *osFileSystem) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	path := fs.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, flag, perm)
}

func (fs *osFileSystem) Open(name string) (absfs.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

func (fs *osFileSystem) Create(name string) (absfs.File, error) {
	return fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

func (fs *osFileSystem) Mkdir(name string, perm os.FileMode) error {
	return os.Mkdir(fs.path(name), perm)
}

func (fs *osFileSystem) MkdirAll(name string, perm os.FileMode) error {
	return os.MkdirAll(fs.path(name), perm)
}

func (fs *osFileSystem) Remove(name string) error {
	return os.Remove(fs.path(name))
}

func (fs *osFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(fs.path(path))
}

func (fs *osFileSystem) Rename(oldpath, newpath string) error {
	return os.Rename(fs.path(oldpath), fs.path(newpath))
}

func (fs *osFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(fs.path(name))
}

func (fs *osFileSystem) Chmod(name string, mode os.FileMode) error {
	return os.Chmod(fs.path(name), mode)
}

func (fs *osFileSystem) Chtimes(name string, atime, mtime time.Time) error {
	return os.Chtimes(fs.path(name), atime, mtime)
}

func (fs *osFileSystem) Chown(name string, uid, gid int) error {
	return os.Chown(fs.path(name), uid, gid)
}

func (fs *osFileSystem) Truncate(name string, size int64) error {
	return os.Truncate(fs.path(name), size)
}

func (fs *osFileSystem) Separator() uint8 {
	return os.PathSeparator
}

func (fs *osFileSystem) ListSeparator() uint8 {
	return os.PathListSeparator
}

func (fs *osFileSystem) Chdir(dir string) error {
	fs.root = fs.path(dir)
	return nil
}

func (fs *osFileSystem) Getwd() (string, error) {
	return fs.root, nil
}

func (fs *osFileSystem) TempDir() string {
	return os.TempDir()
}
