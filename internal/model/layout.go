package model

// Schema is the field list discovered from the first stored record.
type Schema struct {
	Fields      []string `json:"fields"`
	Initialized bool     `json:"initialized"`
}

type ColumnConfig struct {
	FieldName string `json:"field_name" binding:"required"`
	Width     uint32 `json:"width"`
	Visible   bool   `json:"visible"`
	Order     int    `json:"order"`
}

// TableLayout is the persisted column layout document. It is always replaced
// as a whole.
type TableLayout struct {
	Theme   *string        `json:"theme,omitempty"`
	Columns []ColumnConfig `json:"columns"`
}

// Clone returns a deep copy so callers cannot alias the stored document.
func (t *TableLayout) Clone() *TableLayout {
	if t == nil {
		return nil
	}
	out := &TableLayout{Columns: make([]ColumnConfig, len(t.Columns))}
	copy(out.Columns, t.Columns)
	if t.Theme != nil {
		theme := *t.Theme
		out.Theme = &theme
	}
	return out
}
