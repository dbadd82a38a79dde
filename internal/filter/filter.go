// Package filter evaluates conjunctive record filters.
package filter

import (
	"jsonweblog/internal/model"
	"strings"
	"time"
)

// LogFilter holds independently optional predicates. A record matches when
// every predicate that is set holds; a filter with nothing set matches all.
type LogFilter struct {
	Level      *model.Level
	SearchText *string
	Logger     *string
	Module     *string
	StartTime  *time.Time
	EndTime    *time.Time
}

func New() *LogFilter {
	return &LogFilter{}
}

func (f *LogFilter) WithLevel(level model.Level) *LogFilter {
	f.Level = &level
	return f
}

// WithSearchText sets a case-insensitive search over message, logger, module
// and function.
func (f *LogFilter) WithSearchText(text string) *LogFilter {
	f.SearchText = &text
	return f
}

func (f *LogFilter) WithLogger(logger string) *LogFilter {
	f.Logger = &logger
	return f
}

func (f *LogFilter) WithModule(module string) *LogFilter {
	f.Module = &module
	return f
}

// WithTimeRange sets an inclusive range. Either bound may be nil.
func (f *LogFilter) WithTimeRange(start, end *time.Time) *LogFilter {
	f.StartTime = start
	f.EndTime = end
	return f
}

func (f *LogFilter) IsEmpty() bool {
	return f == nil ||
		f.Level == nil &&
			f.SearchText == nil &&
			f.Logger == nil &&
			f.Module == nil &&
			f.StartTime == nil &&
			f.EndTime == nil
}

func (f *LogFilter) Matches(record *model.LogRecord) bool {
	if f.IsEmpty() {
		return true
	}

	if f.Level != nil && record.Level != *f.Level {
		return false
	}

	if f.SearchText != nil && !matchesSearch(record, strings.ToLower(*f.SearchText)) {
		return false
	}

	if f.Logger != nil && !strings.Contains(record.Logger, *f.Logger) {
		return false
	}

	if f.Module != nil {
		if record.Module == nil || !strings.Contains(record.ModuleName(), *f.Module) {
			return false
		}
	}

	if f.StartTime != nil && record.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && record.Timestamp.After(*f.EndTime) {
		return false
	}

	return true
}

func matchesSearch(record *model.LogRecord, needle string) bool {
	return containsFold(record.Message, needle) ||
		containsFold(record.Logger, needle) ||
		containsFold(record.ModuleName(), needle) ||
		containsFold(record.FunctionName(), needle)
}

func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}
