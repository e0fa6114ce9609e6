package disk

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/skyline93/js5/internal/js5"
	"github.com/stretchr/testify/require"
)

// counterDelta returns how much the counter read by value grows while fn runs.
func counterDelta(value func() float64, fn func()) float64 {
	before := value()
	fn()
	return value() - before
}

func TestMetricsAbandonedChains(t *testing.T) {
	s := openTestStore(t, testConfig(t))
	a, err := s.CreateArchiveIdxFile()
	require.NoError(t, err)

	abandoned := func() float64 { return testutil.ToFloat64(abandonedChains) }

	require.Zero(t, counterDelta(abandoned, func() {
		require.NoError(t, s.Write(a, 0, iterationFill(4*PayloadSize)))
	}))

	// same length and longer overwrites keep the whole chain in use
	require.Zero(t, counterDelta(abandoned, func() {
		require.NoError(t, s.Write(a, 0, iterationFill(4*PayloadSize)))
		require.NoError(t, s.Write(a, 0, iterationFill(5*PayloadSize)))
	}))

	require.Equal(t, 1.0, counterDelta(abandoned, func() {
		require.NoError(t, s.Write(a, 0, []byte("short")))
	}))
}

func TestMetricsOperationResults(t *testing.T) {
	s := openTestStore(t, testConfig(t))
	a, err := s.CreateArchiveIdxFile()
	require.NoError(t, err)

	ops := func(operation, result string) func() float64 {
		return func() float64 {
			return testutil.ToFloat64(storeOpsTotal.WithLabelValues(operation, result))
		}
	}

	require.Equal(t, 1.0, counterDelta(ops("read", "not_found"), func() {
		_, err := s.Read(a, 3)
		require.ErrorIs(t, err, js5.ErrContainerNotFound)
	}))

	require.Equal(t, 1.0, counterDelta(ops("write", "success"), func() {
		require.NoError(t, s.Write(a, 3, iterationFill(100)))
	}))

	require.Equal(t, 1.0, counterDelta(ops("read", "success"), func() {
		_, err := s.Read(a, 3)
		require.NoError(t, err)
	}))

	require.Equal(t, 1.0, counterDelta(ops("write", "error"), func() {
		require.Error(t, s.Write(a, 4, make([]byte, MaxContainerSize+1)))
	}))

	idx, err := s.index(a)
	require.NoError(t, err)
	require.NoError(t, idx.WriteRecord(5, IndexRecord{Size: 10, Sector: 999}))
	require.Equal(t, 1.0, counterDelta(ops("read", "corrupt"), func() {
		_, err := s.Read(a, 5)
		require.ErrorIs(t, err, js5.ErrCorruptChain)
	}))
}

func TestMetricsSectorsAndBytes(t *testing.T) {
	s := openTestStore(t, testConfig(t))
	a, err := s.CreateArchiveIdxFile()
	require.NoError(t, err)

	written := func() float64 { return testutil.ToFloat64(sectorsTotal.WithLabelValues("write")) }
	readBytes := func() float64 { return testutil.ToFloat64(bytesTotal.WithLabelValues("read")) }

	data := iterationFill(3*PayloadSize - 1)
	require.Equal(t, 3.0, counterDelta(written, func() {
		require.NoError(t, s.Write(a, 0, data))
	}))
	require.Equal(t, float64(len(data)), counterDelta(readBytes, func() {
		_, err := s.Read(a, 0)
		require.NoError(t, err)
	}))
}
