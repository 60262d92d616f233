// Package util implements the string/path/wildcard/file helpers shared
// across the core, grounded in spec §4.R. These are small, dependency-
// free helpers by nature (the original is a grab-bag of C string and
// path utilities); no example repo carries an equivalent package, so
// each is built directly on the standard library — the REQUIRED
// justification here is that there is no third-party "misc string/path
// helpers" library in the pack to ground this on, and pulling one in
// purely for trivial wrappers (wildcard match, path joins) would add a
// dependency with no behavior the stdlib doesn't already express.
package util

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// WildcardMatch implements `*`/`?` glob matching with backtracking,
// independent of filepath.Match so behavior is identical across
// platforms regardless of path separator quirks.
func WildcardMatch(pattern, s string) bool {
	return wildcardMatch([]rune(pattern), []rune(s))
}

func wildcardMatch(p, s []rune) bool {
	var pi, si int
	var starIdx, matchIdx int
	starIdx, matchIdx = -1, 0
	for si < len(s) {
		if pi < len(p) && (p[pi] == '?' || p[pi] == s[si]) {
			pi++
			si++
		} else if pi < len(p) && p[pi] == '*' {
			starIdx = pi
			matchIdx = si
			pi++
		} else if starIdx != -1 {
			pi = starIdx + 1
			matchIdx++
			si = matchIdx
		} else {
			return false
		}
	}
	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}

// Tokenize splits a line into space-separated tokens honoring `\`
// escapes and `"`-quoted segments.
func Tokenize(line string) []string {
	var tokens []string
	var cur strings.Builder
	inQuotes := false
	haveToken := false
	flush := func() {
		if haveToken {
			tokens = append(tokens, cur.String())
			cur.Reset()
			haveToken = false
		}
	}
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes):
			cur.WriteRune(runes[i+1])
			haveToken = true
			i++
		case r == '"':
			inQuotes = !inQuotes
			haveToken = true
		case r == ' ' && !inQuotes:
			flush()
		default:
			cur.WriteRune(r)
			haveToken = true
		}
	}
	flush()
	return tokens
}

// PathSeparator is the platform path separator, exposed as a rune so
// callers can abstract over it the way the original does.
const PathSeparator = filepath.Separator

// Extension returns a path's extension without the leading dot, or ""
// if none.
func Extension(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimPrefix(ext, ".")
}

// ParentPath returns the directory containing path.
func ParentPath(path string) string {
	return filepath.Dir(path)
}

// RealPath resolves symlinks and returns an absolute, cleaned path.
func RealPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, nil
	}
	return resolved, nil
}

// TempFileName generates a temp file path under dir with the given
// prefix/suffix, without creating the file.
func TempFileName(dir, prefix, suffix string) (string, error) {
	f, err := os.CreateTemp(dir, prefix+"*"+suffix)
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return name, nil
}

// Exists reports whether path exists on disk.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Size returns a file's size in bytes.
func Size(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// Delete removes a single file.
func Delete(path string) error {
	return os.Remove(path)
}

// Rename moves a file.
func Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// Copy duplicates a file's contents, preserving nothing but the bytes.
func Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

// RecursiveDelete removes path and, if it is a directory, everything
// beneath it — the Go-native equivalent of the packaging tool's `/r`
// recursive-delete option described in §6.
func RecursiveDelete(path string) error {
	return os.RemoveAll(path)
}

// ForEachFile walks dir, invoking fn for every regular file found.
func ForEachFile(dir string, fn func(path string, info fs.FileInfo) error) error {
	return filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		return fn(path, info)
	})
}

// StdFile wraps an *os.File with an optional gzip layer, mirroring the
// original's CStdFile abstraction from §4.R/§6.
type StdFile struct {
	f      *os.File
	gz     *gzip.Writer
	gzR    *gzip.Reader
	gzipOn bool
}

// OpenStdFile opens path for reading, transparently un-gzipping if
// gzipped is true.
func OpenStdFile(path string, gzipped bool) (*StdFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	sf := &StdFile{f: f, gzipOn: gzipped}
	if gzipped {
		gr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		sf.gzR = gr
	}
	return sf, nil
}

// CreateStdFile creates path for writing, wrapping in gzip if
// requested.
func CreateStdFile(path string, gzipped bool) (*StdFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	sf := &StdFile{f: f, gzipOn: gzipped}
	if gzipped {
		sf.gz = gzip.NewWriter(f)
	}
	return sf, nil
}

func (s *StdFile) Read(p []byte) (int, error) {
	if s.gzR != nil {
		return s.gzR.Read(p)
	}
	return s.f.Read(p)
}

func (s *StdFile) Write(p []byte) (int, error) {
	if s.gz != nil {
		return s.gz.Write(p)
	}
	return s.f.Write(p)
}

// Close flushes any gzip layer and closes the underlying file.
func (s *StdFile) Close() error {
	var gzErr error
	if s.gz != nil {
		gzErr = s.gz.Close()
	}
	if s.gzR != nil {
		s.gzR.Close()
	}
	if err := s.f.Close(); err != nil {
		return err
	}
	return gzErr
}

// ModuleList is an ordered set of string entries with add/remove,
// matching the original's "module list" helper.
type ModuleList struct {
	items []string
}

// Add appends name if not already present, returning false if it was
// a duplicate.
func (m *ModuleList) Add(name string) bool {
	for _, it := range m.items {
		if it == name {
			return false
		}
	}
	m.items = append(m.items, name)
	return true
}

// Remove deletes name, returning false if it was not present.
func (m *ModuleList) Remove(name string) bool {
	for i, it := range m.items {
		if it == name {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns the list contents in insertion order.
func (m *ModuleList) Items() []string {
	return append([]string(nil), m.items...)
}

// Segment mimics the original's SCopySegment: returns the nth
// delim-separated segment of s, or an error if there are fewer than
// n+1 segments.
func Segment(s string, delim byte, n int) (string, error) {
	parts := strings.Split(s, string(delim))
	if n < 0 || n >= len(parts) {
		return "", fmt.Errorf("util: segment %d out of range in %q", n, s)
	}
	return parts[n], nil
}
