package dto

type StatsResponse struct {
	TotalLogs         int    `json:"total_logs"`
	ActiveConnections int    `json:"active_connections"`
	UptimeSeconds     uint64 `json:"uptime_seconds"`
	IngestedRecords   uint64 `json:"ingested_records"`
	RejectedLines     uint64 `json:"rejected_lines"`
	DroppedMessages   uint64 `json:"dropped_messages"`
}
