// Package file stores each record as a JSON file inside a profile directory,
// the on-disk analogue of browser local storage.
package file

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-faster/errors"
	"github.com/gofrs/flock"

	"github.com/aurelius/storefront/internal/storage"
)

var _ storage.Backend = (*Backend)(nil)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

const lockRetryDelay = 5 * time.Millisecond

// Backend is a directory of <key>.json files.
type Backend struct {
	dir string
}

// New creates dir if needed and returns a Backend rooted there.
func New(dir string) (*Backend, error) {
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "create storage directory")
	}
	return &Backend{dir: dir}, nil
}

// Dir returns the profile directory.
func (b *Backend) Dir() string {
	return b.dir
}

func (b *Backend) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", errors.Errorf("invalid key %q", key)
	}
	return filepath.Join(b.dir, key+".json"), nil
}

// Get reads the file for key.
func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	p, err := b.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(storage.ErrNotFound, "key %s", key)
		}
		return nil, errors.Wrapf(err, "read %s", key)
	}
	return data, nil
}

// Put writes value to a temporary file and renames it over the record, so a
// crash mid-write leaves the previous value intact.
func (b *Backend) Put(_ context.Context, key string, value []byte) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.dir, "."+key+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpName, p); err != nil {
		return errors.Wrapf(err, "replace %s", key)
	}
	return nil
}

// Delete removes the file for key.
func (b *Backend) Delete(_ context.Context, key string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, "remove %s", key)
	}
	return nil
}

// Update applies fn to the record for key while holding an advisory lock on
// <key>.lock, so processes sharing the directory take turns.
func (b *Backend) Update(ctx context.Context, key string, fn storage.UpdateFunc) error {
	if _, err := b.path(key); err != nil {
		return err
	}

	lock := flock.New(filepath.Join(b.dir, key+".lock"))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return errors.Wrapf(err, "lock %s", key)
	}
	if !locked {
		return errors.Errorf("lock %s: not acquired", key)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	return storage.ReadModifyWrite(ctx, b, key, fn)
}

// Ping checks that the directory is still accessible.
func (b *Backend) Ping(context.Context) error {
	info, err := os.Stat(b.dir)
	if err != nil {
		return errors.Wrap(err, "stat storage directory")
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", b.dir)
	}
	return nil
}

// Close is a no-op.
func (b *Backend) Close() error { return nil }
