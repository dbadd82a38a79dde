package layoutstore

import (
	"context"
	"encoding/json"
	"fmt"
	"jsonweblog/internal/model"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultFilePath is the settings document location relative to the working directory.
const DefaultFilePath = "jsonweblog_settings.json"

type fileStore struct {
	filePath string
	mu       sync.RWMutex
}

func NewFileStore(filePath string) Store {
	if filePath == "" {
		filePath = DefaultFilePath
	}
	return &fileStore{
		filePath: filePath,
	}
}

func (s *fileStore) Load(ctx context.Context) (*model.TableLayout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("file", s.filePath).Msg("Layout file not found, using defaults")
			return nil, ErrLayoutNotFound
		}
		return nil, fmt.Errorf("read layout file %s: %w", s.filePath, err)
	}

	if len(data) == 0 {
		log.Warn().Str("file", s.filePath).Msg("Layout file is empty, using defaults")
		return nil, ErrLayoutNotFound
	}

	var layout model.TableLayout
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("decode layout file %s: %w", s.filePath, err)
	}

	log.Debug().Str("file", s.filePath).Int("columns", len(layout.Columns)).Msg("Loaded layout")
	return &layout, nil
}

// Save writes to a temporary file and renames it over the target, so readers
// never observe a partial document.
func (s *fileStore) Save(ctx context.Context, layout *model.TableLayout) error {
	if layout == nil {
		return fmt.Errorf("save layout: nil layout")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}

	if dir := filepath.Dir(s.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create layout directory %s: %w", dir, err)
		}
	}

	tempFilePath := s.filePath + ".tmp"
	if err := os.WriteFile(tempFilePath, data, 0o644); err != nil {
		return fmt.Errorf("write temporary layout file %s: %w", tempFilePath, err)
	}

	if err := os.Rename(tempFilePath, s.filePath); err != nil {
		_ = os.Remove(tempFilePath)
		return fmt.Errorf("rename layout file to %s: %w", s.filePath, err)
	}

	log.Debug().Str("file", s.filePath).Int("columns", len(layout.Columns)).Msg("Saved layout")
	return nil
}
