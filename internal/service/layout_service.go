package service

import (
	"context"
	"errors"
	"fmt"
	"jsonweblog/internal/layoutstore"
	"jsonweblog/internal/model"
	"jsonweblog/internal/schema"
	"sync"

	"github.com/rs/zerolog/log"
)

type LayoutService interface {
	Load(ctx context.Context) error
	Schema() model.Schema
	GetLayout() *model.TableLayout
	SetLayout(ctx context.Context, layout *model.TableLayout) (*model.TableLayout, error)
}

type layoutService struct {
	mu      sync.RWMutex
	layout  *model.TableLayout
	store   layoutstore.Store
	tracker schema.Tracker
}

func NewLayoutService(store layoutstore.Store, tracker schema.Tracker) LayoutService {
	return &layoutService{
		store:   store,
		tracker: tracker,
	}
}

// Load reads the persisted layout once at start-up. A missing document is
// not an error.
func (s *layoutService) Load(ctx context.Context) error {
	layout, err := s.store.Load(ctx)
	if errors.Is(err, layoutstore.ErrLayoutNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}

	s.mu.Lock()
	s.layout = layout
	s.mu.Unlock()

	log.Info().Int("columns", len(layout.Columns)).Msg("Loaded table layout")
	return nil
}

func (s *layoutService) Schema() model.Schema {
	return s.tracker.Schema()
}

// GetLayout returns the stored layout, else the default derived from the
// schema, else nil.
func (s *layoutService) GetLayout() *model.TableLayout {
	s.mu.RLock()
	layout := s.layout.Clone()
	s.mu.RUnlock()

	if layout != nil {
		return layout
	}
	return s.tracker.DefaultLayout()
}

// SetLayout replaces the layout in memory and then persists it. A persistence
// failure is returned together with the applied layout; the in-memory change
// stays.
func (s *layoutService) SetLayout(ctx context.Context, layout *model.TableLayout) (*model.TableLayout, error) {
	if layout == nil {
		return nil, errors.New("layout is required")
	}
	applied := layout.Clone()
	if applied.Columns == nil {
		applied.Columns = []model.ColumnConfig{}
	}

	s.mu.Lock()
	s.layout = applied
	s.mu.Unlock()
	log.Info().Int("columns", len(applied.Columns)).Msg("Updated table layout")

	if err := s.store.Save(ctx, applied); err != nil {
		log.Warn().Err(err).Msg("Failed to save table layout")
		return applied.Clone(), fmt.Errorf("persist layout: %w", err)
	}
	return applied.Clone(), nil
}
