// Package index reads the per-period index files (<PN>.<ext>) that record
// which units were tested in that period.
package index

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"logreader/internal/walker"
)

// FileName is the index file name for a product.
func FileName(pn, ext string) string {
	return pn + "." + strings.TrimPrefix(ext, ".")
}

// Files returns the index files for pn directly inside periodDir.
func Files(periodDir, pn, ext string) ([]string, error) {
	pattern := filepath.Join(escapeGlob(periodDir), escapeGlob(FileName(pn, ext)))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	files := matches[:0]
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	return files, nil
}

// Scan returns every line of the period's index files that contains sn,
// trimmed, in file and line order. Invalid UTF-8 is replaced rather than
// rejected. Files that cannot be read are reported to onErr and skipped.
func Scan(periodDir, pn, sn, ext string, onErr walker.ErrorFunc) []string {
	if sn == "" {
		return nil
	}
	files, err := Files(periodDir, pn, ext)
	if err != nil {
		if onErr != nil {
			onErr(periodDir, err)
		}
		return nil
	}

	var lines []string
	for _, path := range files {
		matched, err := scanFile(path, sn)
		if err != nil {
			if onErr != nil {
				onErr(path, err)
			}
			continue
		}
		lines = append(lines, matched...)
	}
	return lines
}

// scanFile returns the matching lines of an index file. A read error
// discards the whole file.
func scanFile(path, sn string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return matchLines(f, sn)
}

func matchLines(r io.Reader, sn string) ([]string, error) {
	br := bufio.NewReader(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))

	var lines []string
	for {
		line, err := br.ReadString('\n')
		if line != "" && strings.Contains(line, sn) {
			lines = append(lines, strings.TrimSpace(line))
		}
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)
	if filepath.Separator == '\\' {
		return s
	}
	return r.Replace(s)
}
