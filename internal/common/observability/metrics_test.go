// internal/common/observability/metrics_test.go
package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RecordsOperations(t *testing.T) {
	obs := New("loan-desk-test")
	require.NotNil(t, obs)
	defer obs.Shutdown()

	assert.NotNil(t, obs.opCounter)
	assert.NotNil(t, obs.opDuration)
	assert.NotPanics(t, func() {
		obs.RecordOperation(context.Background(), "save", 3*time.Millisecond, nil)
		obs.RecordOperation(context.Background(), "save", time.Millisecond, errors.New("locked"))
	})
}

func TestNilObservabilityIsNoOp(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.RecordOperation(context.Background(), "load_all", time.Millisecond, nil)
		obs.Shutdown()
	})
	assert.NotPanics(t, func() {
		(&Observability{}).RecordOperation(context.Background(), "load_all", time.Millisecond, nil)
	})
}
