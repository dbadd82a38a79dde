package schema

import (
	"jsonweblog/internal/model"
	"sync"
)

// OrdinalField is the synthetic leading column carrying the record sequence.
const OrdinalField = "#"

const (
	ordinalWidth = 80
	fieldWidth   = 150
)

// Tracker holds the schema discovered from the first stored record. The field
// list is captured exactly once and never changes afterwards.
type Tracker interface {
	InitializeOnce(fieldNames []string) bool
	Schema() model.Schema
	DefaultLayout() *model.TableLayout
}

type tracker struct {
	mu     sync.RWMutex
	fields []string
}

func NewTracker() Tracker {
	return &tracker{}
}

// InitializeOnce records fieldNames prefixed with the ordinal field. It
// reports whether this call performed the initialization.
func (t *tracker) InitializeOnce(fieldNames []string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fields != nil {
		return false
	}

	fields := make([]string, 0, len(fieldNames)+1)
	fields = append(fields, OrdinalField)
	fields = append(fields, fieldNames...)
	t.fields = fields
	return true
}

func (t *tracker) Schema() model.Schema {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.fields == nil {
		return model.Schema{Fields: []string{}, Initialized: false}
	}

	fields := make([]string, len(t.fields))
	copy(fields, t.fields)
	return model.Schema{Fields: fields, Initialized: true}
}

// DefaultLayout derives a layout showing every field in discovery order. It
// returns nil until the schema is initialized.
func (t *tracker) DefaultLayout() *model.TableLayout {
	s := t.Schema()
	if !s.Initialized {
		return nil
	}

	columns := make([]model.ColumnConfig, len(s.Fields))
	for i, name := range s.Fields {
		width := uint32(fieldWidth)
		if name == OrdinalField {
			width = ordinalWidth
		}
		columns[i] = model.ColumnConfig{
			FieldName: name,
			Width:     width,
			Visible:   true,
			Order:     i,
		}
	}
	return &model.TableLayout{Columns: columns}
}
