// Package uploadsvc stores uploaded images on the local disk.
package uploadsvc

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/market"
)

// URLPrefix is the path under which uploaded files are served.
const URLPrefix = "/static/uploads"

var (
	AllowedExtensions = []string{"png", "jpg", "jpeg", "gif"}

	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// DiskStore saves files under a single directory.
type DiskStore struct {
	dir string
}

var _ market.ImageStore = (*DiskStore)(nil) // interface compliance check

// NewDiskStore creates dir when it does not exist.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating upload directory")
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Dir() string { return s.dir }

// Allowed reports whether filename has an image extension.
func Allowed(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return core.ContainsString(AllowedExtensions, ext)
}

// secureFilename keeps the base name of filename with only safe characters.
func secureFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = unsafeChars.ReplaceAllString(strings.ReplaceAll(name, " ", "_"), "")
	return strings.TrimLeft(name, "._")
}

// Save writes src under a unique name and returns its public path.
func (s *DiskStore) Save(filename string, src io.Reader) (string, error) {
	if !Allowed(filename) {
		msg := fmt.Sprintf("file type not allowed, must be one of: %s", strings.Join(AllowedExtensions, ", "))
		return "", core.NewFieldValidationError("images", msg)
	}
	name := uuid.New().String() + "_" + secureFilename(filename)

	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	if _, err = io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", errors.Wrap(err, "writing upload file")
	}
	if err = dst.Close(); err != nil {
		return "", errors.Wrap(err, "closing upload file")
	}
	return path.Join(URLPrefix, name), nil
}

// Delete removes the file behind a path returned by Save. Missing files are ignored.
func (s *DiskStore) Delete(p string) error {
	if !strings.HasPrefix(p, URLPrefix+"/") {
		return nil
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting upload file")
	}
	return nil
}
