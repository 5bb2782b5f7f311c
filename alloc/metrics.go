package alloc

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports the traffic of an upstream provider as prometheus
// counters.
type Metrics[T any] struct {
	upstream Bulk[T]

	allocBytes   prometheus.Counter
	freeBytes    prometheus.Counter
	inuseBytes   prometheus.Gauge
	allocObjects prometheus.Counter
}

func NewMetrics[T any](upstream Bulk[T], reg prometheus.Registerer, namespace string) (*Metrics[T], error) {
	if upstream == nil {
		upstream = Heap[T]{}
	}
	m := &Metrics[T]{
		upstream: upstream,
		allocBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_alloc_bytes_total",
			Help:      "Bytes requested from the bulk provider.",
		}),
		freeBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_free_bytes_total",
			Help:      "Bytes released to the bulk provider.",
		}),
		inuseBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bulk_inuse_bytes",
			Help:      "Bytes currently held from the bulk provider.",
		}),
		allocObjects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_alloc_objects_total",
			Help:      "Requests served by the bulk provider.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.allocBytes, m.freeBytes, m.inuseBytes, m.allocObjects} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics[T]) Alloc(n int) ([]T, error) {
	b, err := m.upstream.Alloc(n)
	if err != nil {
		return nil, err
	}
	sz := float64(bytesOf[T](len(b)))
	m.allocBytes.Add(sz)
	m.inuseBytes.Add(sz)
	m.allocObjects.Inc()
	return b, nil
}

func (m *Metrics[T]) Free(b []T) error {
	if err := m.upstream.Free(b); err != nil {
		return err
	}
	sz := float64(bytesOf[T](len(b)))
	m.freeBytes.Add(sz)
	m.inuseBytes.Sub(sz)
	return nil
}
