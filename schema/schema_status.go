package schema

import "time"

// StoreStatus represents the status of the observation store.
type StoreStatus struct {
	Backend        string    `json:"backend"`
	Connected      bool      `json:"connected"`
	TotalRows      int       `json:"total_rows"`
	Patients       int       `json:"patients"`
	OldestRecorded time.Time `json:"oldest_recorded"`
	LatestRecorded time.Time `json:"latest_recorded"`
	TableSizeBytes int64     `json:"table_size_bytes"`
	SchemaVersion  uint      `json:"schema_version"`
	SchemaIsDirty  bool      `json:"schema_is_dirty"`
}
