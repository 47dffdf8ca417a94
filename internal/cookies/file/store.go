// Package file persists cookie partitions as JSON documents, one file per
// domain, in the canonical record schema.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/artpar/svcclient/internal/cookies"
	"github.com/spf13/afero"
)

// Extension of cookie partition files.
const Extension = ".cook"

// Store implements cookies.Store on a directory of JSON files.
type Store struct {
	mu      sync.Mutex
	fs      afero.Fs
	baseDir string
	logger  *slog.Logger
	closed  bool
}

// Option configures a Store.
type Option func(*Store)

// WithFs sets the filesystem (defaults to the OS filesystem).
func WithFs(fs afero.Fs) Option {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithLogger sets the logger used to report dropped records.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a file store rooted at baseDir, creating it if needed.
func New(baseDir string, opts ...Option) (*Store, error) {
	s := &Store{
		fs:      afero.NewOsFs(),
		baseDir: baseDir,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.fs.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cookie directory: %w", err)
	}
	return s, nil
}

// Path returns the file that holds the partition for domain.
func (s *Store) Path(domain string) string {
	return filepath.Join(s.baseDir, sanitize(domain)+Extension)
}

// Load returns the non-expired cookies of a partition.
func (s *Store) Load(ctx context.Context, domain string) ([]*cookies.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, cookies.ErrStoreClosed
	}

	data, err := afero.ReadFile(s.fs, s.Path(domain))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var records []cookies.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse cookie file %s: %w", s.Path(domain), err)
	}

	now := time.Now()
	list := make([]*cookies.Cookie, 0, len(records))
	for _, r := range records {
		c, err := cookies.Validate(r.Raw(), nil)
		if err != nil {
			s.logger.Warn("dropping stored cookie",
				slog.String("domain", domain),
				slog.String("cookie", r.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		if c.ExpiredAt(now) {
			continue
		}
		list = append(list, c)
	}
	return list, nil
}

// Save atomically replaces the partition file.
func (s *Store) Save(ctx context.Context, domain string, list []*cookies.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}

	records := make([]cookies.Record, 0, len(list))
	for _, c := range list {
		records = append(records, c.ToRecord())
	}

	content, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	return s.writeAtomic(s.Path(domain), content)
}

func (s *Store) writeAtomic(path string, content []byte) error {
	tmp, err := afero.TempFile(s.fs, s.baseDir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cookie file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write cookie file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to sync cookie file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close cookie file: %w", err)
	}

	if err := s.fs.Rename(tmpName, path); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace cookie file: %w", err)
	}
	return nil
}

// Domains lists the stored partitions.
func (s *Store) Domains(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, cookies.ErrStoreClosed
	}

	entries, err := afero.ReadDir(s.fs, s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie directory: %w", err)
	}

	var domains []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}
		domains = append(domains, strings.TrimSuffix(entry.Name(), Extension))
	}
	sort.Strings(domains)
	return domains, nil
}

// Delete removes a partition file.
func (s *Store) Delete(ctx context.Context, domain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}

	err := s.fs.Remove(s.Path(domain))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cookie file: %w", err)
	}
	return nil
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// sanitize keeps a domain usable as a file name.
func sanitize(domain string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.ToLower(domain))
}
