package storage

import (
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

const (
	fileDataDir   = "kv"
	fileTmpPrefix = ".tmp-"
)

// File is a store that keeps one file per key on a billy filesystem, with an
// optional byte quota over the total size of the stored values.
type File struct {
	fs    billy.Filesystem
	quota int64
	mu    sync.Mutex
}

// NewFile creates a file store on the given filesystem.
// If quotaBytes is 0 or negative, the store is unbounded.
func NewFile(fs billy.Filesystem, quotaBytes int64) (*File, error) {
	if err := fs.MkdirAll(fileDataDir, 0o700); err != nil {
		return nil, err
	}
	if quotaBytes < 0 {
		quotaBytes = 0
	}
	return &File{fs: fs, quota: quotaBytes}, nil
}

// NewFileDir creates a file store rooted at a directory on the local disk.
func NewFileDir(dir string, quotaBytes int64) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return NewFile(osfs.New(dir), quotaBytes)
}

// Get reads the file for key. A missing file is a miss; other errors are returned.
func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := f.fs.Open(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// Set writes value to a temporary file and renames it over the key's file.
func (f *File) Set(key string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.quota > 0 {
		used, err := f.usage(key)
		if err != nil {
			return err
		}
		size := used + int64(len(value))
		if size > f.quota {
			return &QuotaError{Key: key, Size: size, Limit: f.quota}
		}
	}

	tmp, err := f.fs.TempFile(fileDataDir, fileTmpPrefix)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write([]byte(value)); err != nil {
		_ = tmp.Close()
		_ = f.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = f.fs.Remove(tmpName)
		return err
	}

	if err := f.fs.Rename(tmpName, f.path(key)); err != nil {
		_ = f.fs.Remove(tmpName)
		return err
	}
	return nil
}

// Remove deletes the key's file.
func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.fs.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Used returns the number of bytes currently held.
func (f *File) Used() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usage("")
}

// usage sums stored values, leaving out the file for skipKey (must be called with lock held).
func (f *File) usage(skipKey string) (int64, error) {
	infos, err := f.fs.ReadDir(fileDataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	skip := ""
	if skipKey != "" {
		skip = path.Base(f.path(skipKey))
	}

	var total int64
	for _, info := range infos {
		if info.IsDir() || strings.HasPrefix(info.Name(), fileTmpPrefix) || info.Name() == skip {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

func (f *File) path(key string) string {
	return path.Join(fileDataDir, url.PathEscape(key))
}

// Verify File implements Adapter
var _ Adapter = (*File)(nil)
