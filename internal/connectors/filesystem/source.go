// Package filesystem loads policy documents from a local directory.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
	"github.com/custodia-labs/policyhelper/internal/logger"
)

// Ensure Source implements the interfaces.
var (
	_ driven.DocumentSource  = (*Source)(nil)
	_ driven.DocumentWatcher = (*Source)(nil)
)

// Source reads every supported file under a root directory.
type Source struct {
	rootPath  string
	recursive bool
	accept    func(path string) bool
	mimeType  func(path string) string
	debounce  time.Duration
}

// Option configures a Source.
type Option func(*Source)

// WithRecursive descends into subdirectories.
func WithRecursive(recursive bool) Option {
	return func(s *Source) {
		s.recursive = recursive
	}
}

// WithDebounce sets how long Watch waits for changes to settle.
func WithDebounce(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithFilter restricts loading to paths for which accept returns true.
func WithFilter(accept func(path string) bool) Option {
	return func(s *Source) {
		if accept != nil {
			s.accept = accept
		}
	}
}

// WithMIMETypes sets the function that labels each file's content type.
func WithMIMETypes(fn func(path string) string) Option {
	return func(s *Source) {
		if fn != nil {
			s.mimeType = fn
		}
	}
}

// New creates a filesystem source rooted at rootPath.
func New(rootPath string, opts ...Option) *Source {
	s := &Source{
		rootPath: rootPath,
		accept:   func(string) bool { return true },
		mimeType: func(string) string { return "" },
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the root directory.
func (s *Source) Name() string {
	return s.rootPath
}

// Load reads all accepted files in lexical path order. Hidden files are skipped.
// A missing or unreadable root is an error; an unreadable file is a failure.
func (s *Source) Load(ctx context.Context) ([]domain.RawDocument, []driven.SourceFailure, error) {
	info, err := os.Stat(s.rootPath)
	if err != nil {
		return nil, nil, fmt.Errorf("data dir %s: %w", s.rootPath, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("data dir %s: not a directory", s.rootPath)
	}

	paths, err := s.list()
	if err != nil {
		return nil, nil, err
	}

	var (
		docs     []domain.RawDocument
		failures []driven.SourceFailure
	)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		fi, err := os.Stat(path)
		if err != nil {
			failures = append(failures, driven.SourceFailure{Path: path, Err: err})
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			failures = append(failures, driven.SourceFailure{Path: path, Err: err})
			continue
		}

		docs = append(docs, domain.RawDocument{
			Path:       path,
			Name:       filepath.Base(path),
			MIMEType:   s.mimeType(path),
			Content:    content,
			ModifiedAt: fi.ModTime(),
		})
	}

	logger.Debug("filesystem: loaded %d files from %s (%d failed)", len(docs), s.rootPath, len(failures))
	return docs, failures, nil
}

func (s *Source) list() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == s.rootPath {
				return nil
			}
			if !s.recursive || isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(d.Name()) || !d.Type().IsRegular() || !s.accept(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.rootPath, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
