package keychain

import (
	"context"
	"encoding/base64"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockFileName   = ".lock"
	lockRetryDelay = 10 * time.Millisecond
)

// FileBackend stores every access group in its own directory under root.
// Any number of processes may share a root: readers take a shared lock,
// writers an exclusive one, and values are replaced by atomic rename.
type FileBackend struct {
	root string
}

// NewFileBackend creates a backend rooted at dir. The directory is created
// lazily with owner-only permissions.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, errors.New("keychain: file backend root is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &FileBackend{root: abs}, nil
}

func (f *FileBackend) Get(ctx context.Context, item Item) ([]byte, error) {
	unlock, err := f.lock(ctx, item, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	value, err := os.ReadFile(f.path(item))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return value, err
}

func (f *FileBackend) Put(ctx context.Context, item Item, value []byte) error {
	unlock, err := f.lock(ctx, item, true)
	if err != nil {
		return err
	}
	defer unlock()

	return f.write(item, value)
}

func (f *FileBackend) Delete(ctx context.Context, item Item) error {
	unlock, err := f.lock(ctx, item, true)
	if err != nil {
		return err
	}
	defer unlock()

	err = os.Remove(f.path(item))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (f *FileBackend) Create(ctx context.Context, item Item, value []byte) (bool, error) {
	unlock, err := f.lock(ctx, item, true)
	if err != nil {
		return false, err
	}
	defer unlock()

	if _, err := os.Stat(f.path(item)); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	if err := f.write(item, value); err != nil {
		return false, err
	}
	return true, nil
}

// Must be called with the exclusive lock held.
func (f *FileBackend) write(item Item, value []byte) error {
	dir := f.groupDir(item)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, f.path(item)); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func (f *FileBackend) lock(ctx context.Context, item Item, exclusive bool) (func(), error) {
	dir := f.groupDir(item)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	fl := flock.New(filepath.Join(dir, lockFileName))
	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = fl.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = fl.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, errors.New("keychain: could not acquire file lock")
	}

	return func() { _ = fl.Unlock() }, nil
}

func (f *FileBackend) groupDir(item Item) string {
	return filepath.Join(f.root, encodeName(item.AccessGroup))
}

func (f *FileBackend) path(item Item) string {
	return filepath.Join(f.groupDir(item), encodeName(string(item.Class)+"/"+item.Account))
}

// Account strings embed user ids, so they are encoded to stay valid file names.
func encodeName(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}
