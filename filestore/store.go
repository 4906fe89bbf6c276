package filestore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrOutsideRoot = errors.New("path escapes the upload directory")

// CleanFilename strips any directory part from a client-supplied filename.
func CleanFilename(filename string) (string, error) {
	filename = filepath.Base(filename)
	filename = strings.TrimSpace(filename)
	if strings.Contains(filename, "/") || strings.Contains(filename, `\`) {
		return "", errors.New("filename contains a slash")
	}
	if filename == "" || filename == "." {
		return "", errors.New("filename is empty")
	}
	return filename, nil
}

// A Store keeps uploaded files in a single flat directory. Stored names are
// content-addressed: the same bytes always land in the same file, so
// re-uploading a file is a harmless overwrite, and two different files with
// the same original name never clobber each other.
type Store struct {
	UploadDir string
}

// Save writes src into the upload directory and returns the storage name,
// which is the first 20 hex characters of the SHA-256 of the content plus
// the cleaned original filename. The content is spooled into a temporary
// file first because the name is only known after hashing.
func (s *Store) Save(originalName string, src io.Reader) (string, error) {

	cleaned, err := CleanFilename(originalName)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.UploadDir, 0755); err != nil { // 755 is required if the webserver runs as a different user
		return "", err
	}

	tmp, err := ioutil.TempFile(s.UploadDir, "incoming-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name()) // no-op after the rename

	hash := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hash), src); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	storedName := fmt.Sprintf("%s_%s", hex.EncodeToString(hash.Sum(nil))[:20], cleaned)

	if err := os.Rename(tmp.Name(), filepath.Join(s.UploadDir, storedName)); err != nil {
		return "", err
	}

	return storedName, nil
}

// Resolve joins a client-supplied relative path with the upload root and
// canonicalizes it. If the result is not inside the upload directory, or
// does not exist, an error is returned and nothing must be served.
func (s *Store) Resolve(rel string) (string, error) {

	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", ErrOutsideRoot
	}

	root, err := filepath.Abs(s.UploadDir)
	if err != nil {
		return "", err
	}

	// path.Clean on a rooted copy eats any ".." before joining
	resolved := filepath.Join(root, filepath.FromSlash(path.Clean("/"+filepath.ToSlash(rel))))

	if resolved != root && !strings.HasPrefix(resolved, root+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}

	// a symlink in the upload directory must not smuggle the path outside
	canonical, err := filepath.EvalSymlinks(resolved)
	if err != nil {
		return "", err
	}
	if canonicalRoot, err := filepath.EvalSymlinks(root); err == nil {
		if canonical != canonicalRoot && !strings.HasPrefix(canonical, canonicalRoot+string(filepath.Separator)) {
			return "", ErrOutsideRoot
		}
		resolved = canonical
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", ErrOutsideRoot
	}

	return resolved, nil
}

// Has reports whether a stored name exists, without serving it.
func (s *Store) Has(storedName string) (bool, error) {
	if _, err := s.Resolve(storedName); err == nil {
		return true, nil
	} else if os.IsNotExist(err) || errors.Is(err, ErrOutsideRoot) {
		return false, nil
	} else {
		return false, err
	}
}
