// Package fsutil holds the filesystem helpers behind staging: a filtered
// recursive directory copy, single file copy and path relativization.
package fsutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"jasmined/internal/errors"
	"jasmined/internal/log"
)

var perm = struct {
	file, dir os.FileMode
}{0644, 0755}

// CopyDirectory copies every file under source accepted by filter into
// destination, preserving relative paths. Existing files are overwritten.
// It returns the number of files copied. Directories in exclude, and the
// destination itself, are not descended into.
//
// A missing source yields a MissingSourceDirectory error and nothing is
// written. Any other failure is an IOFailure wrapping the cause.
func CopyDirectory(source, destination string, filter Filter, exclude ...string) (int, error) {
	info, err := os.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.NewFileError("source directory not found", source, errors.MissingSourceDirectory, err)
		}
		return 0, errors.NewFileError("cannot access source directory", source, errors.IOFailure, err)
	}
	if !info.IsDir() {
		return 0, errors.NewFileError("source is not a directory", source, errors.IOFailure, nil)
	}

	skip := map[string]bool{filepath.Clean(destination): true}
	for _, dir := range exclude {
		if dir != "" {
			skip[filepath.Clean(dir)] = true
		}
	}
	copied := 0
	err = filepath.WalkDir(source, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return errors.NewFileError("cannot read source tree", p, errors.IOFailure, walkErr)
		}
		if d.IsDir() {
			// Staging into a subdirectory of the source must not copy its own output.
			if p != source && skip[filepath.Clean(p)] {
				return filepath.SkipDir
			}
			return nil
		}
		if !filter.Match(p) {
			return nil
		}
		if !isRegular(p, d) {
			return nil
		}

		rel, err := filepath.Rel(source, p)
		if err != nil {
			return errors.NewFileError("cannot relativize source file", p, errors.IOFailure, err)
		}
		if err := CopyFile(filepath.Join(destination, rel), p); err != nil {
			return err
		}
		copied++
		log.Debug("Copied %s", rel)
		return nil
	})
	return copied, err
}

// isRegular follows symlinks so linked sources are staged like real files.
func isRegular(p string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// CopyFile copies src to dst, creating parent directories and truncating
// any existing dst.
func CopyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.NewFileError("cannot open source file", src, errors.IOFailure, err)
	}
	defer in.Close()

	if err := createFile(dst, in); err != nil {
		return errors.NewFileError("cannot write destination file", dst, errors.IOFailure, err)
	}
	return nil
}

func createFile(name string, data io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(name), perm.dir); err != nil {
		return err
	}
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, perm.file)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err = io.Copy(f, data); err != nil {
		return err
	}
	return f.Sync()
}

// WriteFile writes data to name, creating parent directories.
func WriteFile(name string, data io.Reader) error {
	if err := createFile(name, data); err != nil {
		return errors.NewFileError("cannot write file", name, errors.IOFailure, err)
	}
	return nil
}
