package store

import (
	"context"

	"github.com/huangsam/scorechart/internal/contract"
	"github.com/huangsam/scorechart/schema"
	"github.com/stretchr/testify/mock"
)

// MockObservationStore is a mock implementation of ObservationStore for testing.
type MockObservationStore struct {
	mock.Mock
}

var _ contract.ObservationStore = &MockObservationStore{} // Compile-time check

// Record implements the ObservationStore interface.
func (m *MockObservationStore) Record(ctx context.Context, patientID, instrument string, points []schema.DataPoint) (int, error) {
	args := m.Called(ctx, patientID, instrument, points)
	return args.Int(0), args.Error(1)
}

// Points implements the ObservationStore interface.
func (m *MockObservationStore) Points(ctx context.Context, patientID, instrument string) ([]schema.DataPoint, error) {
	args := m.Called(ctx, patientID, instrument)
	points, _ := args.Get(0).([]schema.DataPoint)
	return points, args.Error(1)
}

// Instruments implements the ObservationStore interface.
func (m *MockObservationStore) Instruments(ctx context.Context, patientID string) ([]string, error) {
	args := m.Called(ctx, patientID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

// GetStatus implements the ObservationStore interface.
func (m *MockObservationStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the ObservationStore interface.
func (m *MockObservationStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
