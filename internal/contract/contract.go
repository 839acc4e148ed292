// Package contract provides interfaces and shared utilities for scorechart's internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/scorechart/schema"
)

// ObservationStore persists scored observations per patient and instrument.
// This allows the chart commands and servers to be tested without a database.
type ObservationStore interface {
	// Record stores the scored fields of each point and returns the number of rows written.
	Record(ctx context.Context, patientID, instrument string, points []schema.DataPoint) (int, error)

	// Points returns a patient's observations for one instrument, oldest first.
	// Rows sharing a timestamp, source and meaning are regrouped into one multi-field point.
	Points(ctx context.Context, patientID, instrument string) ([]schema.DataPoint, error)

	// Instruments lists the instruments a patient has observations for.
	Instruments(ctx context.Context, patientID string) ([]string, error)

	// GetStatus returns status information about the store.
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}
