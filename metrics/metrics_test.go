package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCommand(t *testing.T) {
	before := testutil.ToFloat64(CommandsTotal.WithLabelValues("lotto", "fun"))
	ObserveCommand("lotto", "fun", time.Now())
	assert.Equal(t, before+1, testutil.ToFloat64(CommandsTotal.WithLabelValues("lotto", "fun")))
}

func TestMeasureStore(t *testing.T) {
	before := testutil.ToFloat64(ExternalErrors.WithLabelValues("store"))

	assert.NoError(t, MeasureStore(func() error { return nil }))
	assert.Equal(t, before, testutil.ToFloat64(ExternalErrors.WithLabelValues("store")))

	boom := errors.New("boom")
	assert.ErrorIs(t, MeasureStore(func() error { return boom }), boom)
	assert.Equal(t, before+1, testutil.ToFloat64(ExternalErrors.WithLabelValues("store")))
}
