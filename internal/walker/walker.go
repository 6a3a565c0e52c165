// Package walker enumerates the per-product log archive: it normalizes the
// year/month directory layouts into a flat list of period directories and
// lists candidate log files inside them.
package walker

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// readBatch bounds how many directory entries are held in memory at once.
// DEBUG directories can hold hundreds of thousands of files.
const readBatch = 512

// ErrorFunc receives faults that were absorbed while walking. It may be nil.
type ErrorFunc func(path string, err error)

// File is a log file whose name matched the serial number.
type File struct {
	Path    string
	Name    string
	ModTime time.Time
}

// Periods returns the period directories under productDir. A child named
// with exactly four digits is a year whose subdirectories are all periods;
// a child named with exactly six digits is a period itself. Everything else
// is ignored. Order follows the filesystem, not the calendar.
func Periods(productDir string, onErr ErrorFunc) []string {
	var periods []string
	err := eachEntry(productDir, func(d fs.DirEntry) {
		name := d.Name()
		if !allDigits(name) || (len(name) != 4 && len(name) != 6) {
			return
		}
		path := filepath.Join(productDir, name)
		if !isDir(d, path) {
			return
		}
		if len(name) == 6 {
			periods = append(periods, path)
			return
		}
		err := eachEntry(path, func(m fs.DirEntry) {
			monthPath := filepath.Join(path, m.Name())
			if isDir(m, monthPath) {
				periods = append(periods, monthPath)
			}
		})
		report(onErr, path, err)
	})
	report(onErr, productDir, err)
	return periods
}

// ListCandidates returns the regular files directly inside dir whose name
// contains sn and none of the exclude markers. Markers are matched
// case-sensitively and win over the serial number match. A directory that
// cannot be read yields no files.
func ListCandidates(dir, sn string, exclude []string, onErr ErrorFunc) []File {
	if sn == "" {
		return nil
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		report(onErr, dir, err)
		return nil
	}

	var files []File
	err = eachEntry(absDir, func(d fs.DirEntry) {
		name := d.Name()
		if !strings.Contains(name, sn) || containsAny(name, exclude) {
			return
		}
		path := filepath.Join(absDir, name)
		info, err := fileInfo(d, path)
		if err != nil {
			report(onErr, path, err)
			return
		}
		if !info.Mode().IsRegular() {
			return
		}
		files = append(files, File{
			Path:    path,
			Name:    name,
			ModTime: info.ModTime(),
		})
	})
	if err != nil {
		report(onErr, absDir, err)
		return nil
	}
	return files
}

// eachEntry calls fn for every entry of dir in filesystem order, reading the
// directory in fixed-size batches.
func eachEntry(dir string, fn func(fs.DirEntry)) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()

	for {
		entries, err := f.ReadDir(readBatch)
		for _, e := range entries {
			fn(e)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
	}
}

// isDir reports whether the entry is a directory or a symlink to one.
func isDir(d fs.DirEntry, path string) bool {
	if d.IsDir() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// fileInfo follows symlinks so a linked log reports its target's mtime.
func fileInfo(d fs.DirEntry, path string) (fs.FileInfo, error) {
	if d.Type()&fs.ModeSymlink != 0 {
		return os.Stat(path)
	}
	return d.Info()
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func report(onErr ErrorFunc, path string, err error) {
	if err != nil && onErr != nil {
		onErr(path, err)
	}
}
