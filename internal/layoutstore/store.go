// Package layoutstore persists the column layout document.
package layoutstore

import (
	"context"
	"errors"
	"jsonweblog/internal/model"
)

var (
	ErrLayoutNotFound = errors.New("layout not found")
)

// Store loads and saves the whole layout document. Save always overwrites.
type Store interface {
	Load(ctx context.Context) (*model.TableLayout, error)
	Save(ctx context.Context, layout *model.TableLayout) error
}
