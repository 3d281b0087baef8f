package engine

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// maxSymlinks bounds symlink resolution in Canonicalize.
const maxSymlinks = 255

var errTooManyLinks = errors.New("too many levels of symbolic links")

// ExpandPath makes p absolute against cwd, expanding a leading ~ to home.
// The result is lexically cleaned but symlinks are left alone.
func ExpandPath(p, cwd, home string) string {
	switch {
	case p == "~":
		p = home
	case strings.HasPrefix(p, "~/"):
		p = filepath.Join(home, p[2:])
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(cwd, p)
	}
	return filepath.Clean(p)
}

// Canonicalize resolves every symlink in the absolute path p. Filesystems
// that can't report links are treated as having none.
func Canonicalize(fsys afero.Fs, p string) (string, error) {
	lstater, canLstat := fsys.(afero.Lstater)
	reader, canReadlink := fsys.(afero.LinkReader)

	resolved := "/"
	pending := strings.Split(filepath.Clean(p), string(filepath.Separator))
	links := 0

	for len(pending) > 0 {
		part := pending[0]
		pending = pending[1:]

		switch part {
		case "", ".":
			continue
		case "..":
			resolved = filepath.Dir(resolved)
			continue
		}

		next := filepath.Join(resolved, part)

		var info fs.FileInfo
		var err error
		if canLstat {
			info, _, err = lstater.LstatIfPossible(next)
		} else {
			info, err = fsys.Stat(next)
		}
		if err != nil {
			return "", err
		}

		if info.Mode()&fs.ModeSymlink == 0 || !canReadlink {
			resolved = next
			continue
		}

		links++
		if links > maxSymlinks {
			return "", &fs.PathError{Op: "canonicalize", Path: p, Err: errTooManyLinks}
		}
		target, err := reader.ReadlinkIfPossible(next)
		if err != nil {
			return "", err
		}
		if filepath.IsAbs(target) {
			resolved = "/"
		}
		pending = append(strings.Split(target, string(filepath.Separator)), pending...)
	}

	return resolved, nil
}
