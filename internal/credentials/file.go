package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for credential files that are neither
// TOML nor YAML
var ErrUnsupportedFormat = errors.New("unsupported credentials format")

const fileMode fs.FileMode = 0o600

type codec struct {
	name      string
	marshal   func(v interface{}) ([]byte, error)
	unmarshal func(data []byte, v interface{}) error
}

var (
	tomlCodec = codec{name: "toml", marshal: toml.Marshal, unmarshal: toml.Unmarshal}
	yamlCodec = codec{name: "yaml", marshal: yaml.Marshal, unmarshal: func(data []byte, v interface{}) error {
		return yaml.Unmarshal(data, v)
	}}
)

func codecFor(path string) (codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return tomlCodec, nil
	case ".yaml", ".yml":
		return yamlCodec, nil
	default:
		return codec{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// FileStore persists credentials in a single TOML or YAML file, chosen by
// extension. The file is written with mode 0600.
//
// Reads that fail (missing permissions, corrupt content) are logged and
// reported as "not configured".
type FileStore struct {
	path   string
	codec  codec
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileStore creates a store for path. The file need not exist yet.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	c, err := codecFor(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		path:   path,
		codec:  c,
		logger: logger.With(zap.String("credentials_file", path)),
	}, nil
}

// Path returns the backing file
func (s *FileStore) Path() string { return s.path }

// AttendanceKeys returns the stored Zoho keys; nil when the file is missing,
// unreadable, or has none
func (s *FileStore) AttendanceKeys(ctx context.Context) (*AttendanceKeys, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, ok := s.read()
	if !ok {
		return nil, nil
	}
	return doc.Attendance, nil
}

// ChatKeys returns the stored Basecamp keys; nil when none are readable
func (s *FileStore) ChatKeys(ctx context.Context) (*ChatKeys, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, ok := s.read()
	if !ok {
		return nil, nil
	}
	return doc.Chat, nil
}

// SetupComplete reports the stored flag; false when the file is unreadable
func (s *FileStore) SetupComplete(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	doc, ok := s.read()
	return ok && doc.SetupComplete
}

// SetAttendanceKeys replaces the Zoho keys, keeping the rest of the file
func (s *FileStore) SetAttendanceKeys(ctx context.Context, keys AttendanceKeys) error {
	return s.update(ctx, func(doc *document) { doc.Attendance = &keys })
}

// SetChatKeys replaces the Basecamp keys, keeping the rest of the file
func (s *FileStore) SetChatKeys(ctx context.Context, keys ChatKeys) error {
	return s.update(ctx, func(doc *document) { doc.Chat = &keys })
}

// SetSetupComplete stores the setup flag
func (s *FileStore) SetSetupComplete(ctx context.Context, complete bool) error {
	return s.update(ctx, func(doc *document) { doc.SetupComplete = complete })
}

// Clear removes the backing file
func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// read loads the document, reporting false when it cannot be used
func (s *FileStore) read() (document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		s.logger.Warn("Failed to read credentials", zap.Error(err))
		return document{}, false
	}
	return doc, true
}

func (s *FileStore) update(ctx context.Context, mutate func(*document)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		// A corrupt file is replaced rather than blocking setup
		s.logger.Warn("Overwriting unreadable credentials", zap.Error(err))
		doc = document{}
	}
	mutate(&doc)
	return s.save(doc)
}

// load must be called with mu held. A missing file is an empty document.
func (s *FileStore) load() (document, error) {
	var doc document

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read %s: %w", s.path, err)
	}

	if err := s.codec.unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("%s parse error: %w", s.codec.name, err)
	}
	return doc, nil
}

// save must be called with mu held. The file is replaced atomically.
func (s *FileStore) save(doc document) error {
	data, err := s.codec.marshal(doc)
	if err != nil {
		return fmt.Errorf("%s encoding error: %w", s.codec.name, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
