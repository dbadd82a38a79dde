package parser

// Alias tables for the canonical record fields. For each field the first alias
// present in the input object wins.
var (
	timestampAliases = []string{"timestamp", "time", "ts", "@timestamp", "datetime", "created_at"}
	levelAliases     = []string{"level", "lvl", "severity", "priority", "log_level"}
	loggerAliases    = []string{"logger", "logger_name", "name", "category", "component"}
	messageAliases   = []string{"message", "msg", "text", "description", "content"}
	moduleAliases    = []string{"module", "mod", "component", "file", "filename"}
	functionAliases  = []string{"function", "func", "method", "procedure"}
)

const defaultLogger = "unknown"
