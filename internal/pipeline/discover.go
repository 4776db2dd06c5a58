package pipeline

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/backmassage/smbfix/internal/planner"
)

// MediaFile is one enumerated candidate.
type MediaFile = planner.MediaFile

// Recognized source extensions (lowercase, with leading dot).
var mediaExtensions = map[string]bool{
	".mp4": true,
	".mkv": true,
	".mov": true,
	".avi": true,
}

// IsMediaFile reports whether name has a recognized extension and is not a
// leftover temporary output.
func IsMediaFile(name string) bool {
	if planner.IsTempOutput(name) {
		return false
	}
	return mediaExtensions[strings.ToLower(filepath.Ext(name))]
}

// EnumerationError reports an unusable scan root.
type EnumerationError struct {
	Root string
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("cannot enumerate %s: %v", e.Root, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// Enumerate checks that root is a directory and returns a lazy, single-use
// sequence of media files under it (direct children only unless recursive),
// in traversal order. Errors reading a subdirectory are yielded with a zero
// MediaFile and the walk continues.
func Enumerate(root string, recursive bool) (iter.Seq2[MediaFile, error], error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &EnumerationError{Root: root, Err: err}
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, &EnumerationError{Root: root, Err: err}
	}
	if !fi.IsDir() {
		return nil, &EnumerationError{Root: root, Err: fmt.Errorf("not a directory")}
	}

	if recursive {
		return walkTree(abs), nil
	}
	return listDir(abs), nil
}

func walkTree(root string) iter.Seq2[MediaFile, error] {
	return func(yield func(MediaFile, error) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if !yield(MediaFile{}, err) {
					return filepath.SkipAll
				}
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !isCandidate(d) {
				return nil
			}
			f, err := newMediaFile(root, path)
			if !yield(f, err) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func listDir(root string) iter.Seq2[MediaFile, error] {
	return func(yield func(MediaFile, error) bool) {
		entries, err := os.ReadDir(root)
		for _, d := range entries {
			if d.IsDir() || !isCandidate(d) {
				continue
			}
			f, ferr := newMediaFile(root, filepath.Join(root, d.Name()))
			if !yield(f, ferr) {
				return
			}
		}
		if err != nil {
			yield(MediaFile{}, err)
		}
	}
}

// isCandidate accepts regular files and symlinks with a media extension.
func isCandidate(d fs.DirEntry) bool {
	t := d.Type()
	if !t.IsRegular() && t&fs.ModeSymlink == 0 {
		return false
	}
	return IsMediaFile(d.Name())
}

func newMediaFile(root, path string) (MediaFile, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return MediaFile{}, err
	}
	return MediaFile{Path: path, RelPath: rel, Ext: filepath.Ext(path)}, nil
}
