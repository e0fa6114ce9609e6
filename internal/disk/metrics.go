package disk

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/skyline93/js5/internal/errors"
	"github.com/skyline93/js5/internal/js5"
)

var (
	storeOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "js5_disk_operations_total",
		Help: "Total number of disk store operations by operation type and result",
	}, []string{"operation", "result"})

	storeOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "js5_disk_operation_duration_seconds",
		Help:    "Disk store operation duration in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation"})

	sectorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "js5_disk_sectors_total",
		Help: "Total number of sectors read or written",
	}, []string{"operation"})

	bytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "js5_disk_container_bytes_total",
		Help: "Total number of container bytes read or written",
	}, []string{"operation"})

	abandonedChains = promauto.NewCounter(prometheus.CounterOpts{
		Name: "js5_disk_abandoned_chains_total",
		Help: "Old chain tails left unreferenced by overwrites with shorter data",
	})
)

// observe returns a done function recording the duration and result of a
// store operation. err is inspected when done runs.
//
// Usage:
//
//	func (s *Store) Read(a js5.ArchiveID, c js5.ContainerID) (data []byte, err error) {
//	    defer observe("read", &err)()
//	}
func observe(operation string, err *error) func() {
	start := time.Now()

	return func() {
		storeOpDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

		result := "success"
		switch {
		case *err == nil:
		case errors.Is(*err, js5.ErrContainerNotFound):
			result = "not_found"
		case errors.Is(*err, js5.ErrCorruptChain):
			result = "corrupt"
		default:
			result = "error"
		}
		storeOpsTotal.WithLabelValues(operation, result).Inc()
	}
}
