package model

import "time"

// LogRecord is one normalized log line. It is built once by the normalizer and
// never mutated afterwards.
type LogRecord struct {
	Sequence      uint64                `json:"sequence"`
	Timestamp     time.Time             `json:"timestamp"`
	Level         Level                 `json:"level"`
	Logger        string                `json:"logger"`
	Message       string                `json:"message"`
	Module        *string               `json:"module,omitempty"`
	Function      *string               `json:"function,omitempty"`
	RawFields     RawFields             `json:"raw_fields"`
	DynamicFields map[string]FieldValue `json:"dynamic_fields"`
}

func (r *LogRecord) ModuleName() string {
	if r.Module == nil {
		return ""
	}
	return *r.Module
}

func (r *LogRecord) FunctionName() string {
	if r.Function == nil {
		return ""
	}
	return *r.Function
}
