package fsutil

import (
	"path/filepath"

	"jasmined/internal/errors"
)

// Relativize returns the path of target relative to base. Both are made
// absolute first, so mixing relative and absolute inputs is fine. The
// result may start with ".." when target lies outside base. Empty inputs
// are rejected rather than read as the working directory.
func Relativize(base, target string) (string, error) {
	if base == "" || target == "" {
		return "", errors.ErrInvalidPath
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", errors.NewFileError("cannot resolve base path", base, errors.InvalidPath, err)
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", errors.NewFileError("cannot resolve target path", target, errors.InvalidPath, err)
	}

	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil {
		return "", errors.NewFileError("cannot relativize path", target, errors.InvalidPath, err)
	}
	return rel, nil
}
