// Package docstore reads the fixed directory of knowledge documents backing
// the rule catalog. Documents are plain markdown, one per rule, read-only
// for the lifetime of the process.
package docstore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"fgactx/internal/logging"

	"github.com/adrg/frontmatter"
)

// markdownExtensions contains the document file extensions List reports.
var markdownExtensions = []string{
	".md", ".mdown", ".mkdn", ".mkd", ".markdown",
}

// DocMeta is the YAML frontmatter we recognize at the top of a document.
type DocMeta struct {
	Description string `yaml:"description"`
	Name        string `yaml:"name,omitempty"`
}

// Store loads documents from a single root directory, memoizing content by
// reference. Documents are immutable for the process lifetime, so cache
// entries are never invalidated and a race between two loaders of the same
// reference at worst reads the file twice.
type Store struct {
	root   string
	logger *logging.AppLogger

	mu    sync.RWMutex
	cache map[string]string
}

// NewStore validates that root exists and is a directory, and returns a
// store bound to it.
func NewStore(root string, logger *logging.AppLogger) (*Store, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve docs directory: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot access docs directory %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docs path is not a directory: %s", absRoot)
	}

	logger.Debug("Document store initialized", "root", absRoot)

	return &Store{
		root:   absRoot,
		logger: logger,
		cache:  make(map[string]string),
	}, nil
}

// Root returns the absolute docs directory the store reads from.
func (s *Store) Root() string {
	return s.root
}

// Load returns the full UTF-8 text of the document identified by ref,
// resolved relative to the store root. A missing or unreadable document
// yields a *DocumentNotFoundError carrying the attempted path.
func (s *Store) Load(ref string) (string, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	content, ok := s.cache[ref]
	s.mu.RUnlock()
	if ok {
		s.logger.Debug("Document served from cache", "ref", ref)
		return content, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Debug("Document read failed", "ref", ref, "path", path, "error", err)
		return "", &DocumentNotFoundError{Ref: ref, Path: path, Err: err}
	}

	content = string(data)

	s.mu.Lock()
	s.cache[ref] = content
	s.mu.Unlock()

	s.logger.Debug("Document loaded", "ref", ref, "bytes", len(data))
	return content, nil
}

// Describe parses the document's YAML frontmatter and returns its metadata
// along with the body text (frontmatter stripped). Load, by contrast,
// returns the raw file content untouched.
func (s *Store) Describe(ref string) (DocMeta, string, error) {
	content, err := s.Load(ref)
	if err != nil {
		return DocMeta{}, "", err
	}

	var meta DocMeta
	body, err := frontmatter.Parse(bytes.NewReader([]byte(content)), &meta)
	if err != nil {
		// No frontmatter is fine; the whole file is the body.
		return DocMeta{}, content, nil
	}

	return meta, string(body), nil
}

// List enumerates the markdown documents in the store root, sorted by name.
// The docs directory is flat by contract; subdirectories are skipped.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan docs directory: %w", err)
	}

	var refs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isMarkdownFile(entry.Name()) {
			refs = append(refs, entry.Name())
		}
	}

	slices.Sort(refs)
	s.logger.Debug("Scanned docs directory", "count", len(refs))
	return refs, nil
}

// resolve maps a document reference to an absolute path under the store
// root, rejecting traversal attempts and absolute references. References are
// produced from rule definitions, not caller input, but the store does not
// trust that.
func (s *Store) resolve(ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", &DocumentNotFoundError{Ref: ref, Path: s.root, Err: fmt.Errorf("empty document reference")}
	}
	if filepath.IsAbs(ref) || strings.Contains(ref, "..") {
		return "", &DocumentNotFoundError{Ref: ref, Path: s.root, Err: fmt.Errorf("document reference escapes docs directory")}
	}

	path := filepath.Join(s.root, filepath.Clean(ref))

	// Re-check containment after joining; Clean can still produce paths
	// outside the root on hostile input.
	rel, err := filepath.Rel(s.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", &DocumentNotFoundError{Ref: ref, Path: path, Err: fmt.Errorf("document reference escapes docs directory")}
	}

	return path, nil
}

// isMarkdownFile checks if a filename has a markdown extension.
func isMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return slices.Contains(markdownExtensions, ext)
}
