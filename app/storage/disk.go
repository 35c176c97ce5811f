// Package storage writes accepted uploads to the local filesystem.
package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/km-arc/go-uploads/framework/http/validation"
)

// ErrInvalidKey is returned for keys that would escape the disk root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Disk stores files under one root directory.
type Disk struct {
	root string
}

// Stored describes a file written by Put.
type Stored struct {
	Path string
	Size int64
}

// NewDisk returns a Disk rooted at dir. The directory is created on first Put.
func NewDisk(dir string) *Disk {
	return &Disk{root: filepath.Clean(dir)}
}

// Root returns the directory files are written to.
func (d *Disk) Root() string { return d.root }

// Put copies f to <root>/<key><.ext>. The content lands under a temporary
// name first and is renamed into place once fully written.
func (d *Disk) Put(ctx context.Context, key string, f *validation.UploadedFile) (Stored, error) {
	if err := checkKey(key); err != nil {
		return Stored{}, err
	}
	if err := ctx.Err(); err != nil {
		return Stored{}, errors.Wrap(err, "storage: put")
	}
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return Stored{}, errors.Wrap(err, "storage: create root")
	}

	src, err := f.Open()
	if err != nil {
		return Stored{}, errors.Wrap(err, "storage: open upload")
	}
	defer src.Close()

	tmp, err := os.CreateTemp(d.root, ".upload-*")
	if err != nil {
		return Stored{}, errors.Wrap(err, "storage: create temp file")
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Stored{}, errors.Wrap(err, "storage: write")
	}

	name := key
	if ext := f.Extension(); ext != "" {
		name += "." + ext
	}
	path := filepath.Join(d.root, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Stored{}, errors.Wrap(err, "storage: rename")
	}
	return Stored{Path: path, Size: n}, nil
}

// Delete removes a file written by Put. Missing files are not an error.
func (d *Disk) Delete(path string) error {
	if filepath.Dir(filepath.Clean(path)) != d.root {
		return ErrInvalidKey
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "storage: delete")
	}
	return nil
}

func checkKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	return nil
}
