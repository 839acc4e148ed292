package store

import (
	"fmt"
	"io"

	"github.com/huangsam/scorechart/schema"
)

// statusTimeLayout formats the recorded range in status output.
const statusTimeLayout = "2006-01-02 15:04:05"

// PrintStatus writes store status information to w.
func PrintStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Store Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Rows: %d\n", status.TotalRows)
	_, _ = fmt.Fprintf(w, "Patients: %d\n", status.Patients)
	if status.TotalRows > 0 {
		_, _ = fmt.Fprintf(w, "Oldest Observation: %s\n", status.OldestRecorded.Format(statusTimeLayout))
		_, _ = fmt.Fprintf(w, "Latest Observation: %s\n", status.LatestRecorded.Format(statusTimeLayout))
	}
	_, _ = fmt.Fprintf(w, "Table Size: %d bytes\n", status.TableSizeBytes)
	if status.SchemaVersion > 0 {
		_, _ = fmt.Fprintf(w, "Schema Version: %d (dirty: %t)\n", status.SchemaVersion, status.SchemaIsDirty)
	}
}
