package elasticsearch

import (
	"encoding/json"
	"jsonweblog/internal/model"
	"jsonweblog/internal/parser"
	"time"
)

// archiveDocument is the indexed form of a record. The original object is
// kept as an opaque string so arbitrary keys do not grow the index mapping.
type archiveDocument struct {
	Timestamp time.Time `json:"@timestamp"`
	Sequence  uint64    `json:"sequence"`
	Level     string    `json:"level"`
	Logger    string    `json:"logger"`
	Message   string    `json:"message"`
	Module    *string   `json:"module,omitempty"`
	Function  *string   `json:"function,omitempty"`
	Raw       string    `json:"raw"`
	Fields    []string  `json:"fields"`
}

func toArchiveDocument(record *model.LogRecord) (archiveDocument, error) {
	raw, err := json.Marshal(record.RawFields)
	if err != nil {
		return archiveDocument{}, err
	}
	return archiveDocument{
		Timestamp: record.Timestamp,
		Sequence:  record.Sequence,
		Level:     record.Level.String(),
		Logger:    record.Logger,
		Message:   record.Message,
		Module:    record.Module,
		Function:  record.Function,
		Raw:       string(raw),
		Fields:    record.RawFields.Keys(),
	}, nil
}

// toArchivedRecord rebuilds a record. Dynamic fields are not archived; they
// are derived again from the raw fields.
func (d archiveDocument) toArchivedRecord(flattener *parser.Flattener) (*model.LogRecord, error) {
	record := &model.LogRecord{
		Sequence:  d.Sequence,
		Timestamp: d.Timestamp.UTC(),
		Level:     model.ParseLevel(d.Level),
		Logger:    d.Logger,
		Message:   d.Message,
		Module:    d.Module,
		Function:  d.Function,
	}
	if d.Raw != "" {
		if err := json.Unmarshal([]byte(d.Raw), &record.RawFields); err != nil {
			return nil, err
		}
	}
	record.DynamicFields = flattener.Flatten(record.RawFields)
	return record, nil
}
