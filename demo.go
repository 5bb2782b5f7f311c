package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/google/btree"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/funny-falcon/slabpool/alloc"
	"github.com/funny-falcon/slabpool/config"
	"github.com/funny-falcon/slabpool/vector"
)

func factorial(n int) int {
	x := 1
	for i := 2; i <= n; i++ {
		x *= i
	}
	return x
}

type entry struct {
	Key   int
	Value int
}

// pooledMap is an ordered map whose entries live in a pool, one slot per
// entry. The tree only holds handles.
type pooledMap struct {
	pool *alloc.Pool[entry]
	tree *btree.BTreeG[alloc.Ptr]
}

func newPooledMap(pool *alloc.Pool[entry]) *pooledMap {
	return &pooledMap{
		pool: pool,
		tree: btree.NewG[alloc.Ptr](8, func(a, b alloc.Ptr) bool {
			return pool.At(a).Key < pool.At(b).Key
		}),
	}
}

func (m *pooledMap) Set(key, value int) error {
	p, err := m.pool.Allocate(1)
	if err != nil {
		return err
	}
	m.pool.Construct(m.pool.At(p), entry{Key: key, Value: value})
	old, found := m.tree.Get(p)
	if !found {
		m.tree.ReplaceOrInsert(p)
		return nil
	}
	m.pool.At(old).Value = value
	m.pool.Destroy(m.pool.At(p))
	return m.pool.Deallocate(p, 1)
}

func (m *pooledMap) Len() int {
	return m.tree.Len()
}

func (m *pooledMap) Each(f func(key, value int)) {
	m.tree.Ascend(func(p alloc.Ptr) bool {
		e := m.pool.At(p)
		f(e.Key, e.Value)
		return true
	})
}

func (m *pooledMap) Release() error {
	var err error
	m.tree.Ascend(func(p alloc.Ptr) bool {
		m.pool.Destroy(m.pool.At(p))
		err = m.pool.Deallocate(p, 1)
		return err == nil
	})
	m.tree.Clear(false)
	return err
}

type Traffic struct {
	Allocs     int   `json:"allocs"`
	Frees      int   `json:"frees"`
	BytesAlloc int64 `json:"bytes_alloc"`
	BytesFree  int64 `json:"bytes_free"`
}

func trafficOf[T any](c *alloc.Counting[T]) Traffic {
	return Traffic{
		Allocs:     c.Allocs,
		Frees:      c.Frees,
		BytesAlloc: c.BytesAlloc,
		BytesFree:  c.BytesFree,
	}
}

type Report struct {
	Provider      string      `json:"provider"`
	Map           alloc.Stats `json:"map"`
	Vector        alloc.Stats `json:"vector"`
	MapTraffic    Traffic     `json:"map_traffic"`
	VectorTraffic Traffic     `json:"vector_traffic"`
}

func newBulk[T any](conf config.Config, reg prometheus.Registerer, namespace string) (*alloc.Counting[T], error) {
	var bulk alloc.Bulk[T] = alloc.Heap[T]{}
	if conf.Provider == "mmap" {
		mm, err := alloc.NewMmap[T]()
		if err != nil {
			return nil, err
		}
		bulk = mm
	}
	m, err := alloc.NewMetrics[T](bulk, reg, namespace)
	if err != nil {
		return nil, err
	}
	return alloc.NewCounting[T](m), nil
}

// Run fills a map and vectors with factorials through the default and the
// pooled allocators and prints them to w.
func Run(w io.Writer, conf config.Config, reg prometheus.Registerer) (Report, error) {
	report := Report{Provider: conf.Provider}

	std := map[int]int{}
	for i := 0; i < conf.Count; i++ {
		std[i] = factorial(i)
	}
	keys := make([]int, 0, len(std))
	for k := range std {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	fmt.Fprintln(w, "map with default allocator:")
	for _, k := range keys {
		fmt.Fprintln(w, k, std[k])
	}

	mapBulk, err := newBulk[entry](conf, reg, "slabpool_map")
	if err != nil {
		return report, err
	}
	mapPool := alloc.NewPool[entry](conf.SlabSize, mapBulk, alloc.WithLogger(log))
	defer mapPool.Close()
	pm := newPooledMap(mapPool)
	for i := 0; i < conf.Count; i++ {
		if err := pm.Set(i, factorial(i)); err != nil {
			return report, errors.Wrapf(err, "map: set %d", i)
		}
	}
	fmt.Fprintf(w, "\nmap with pool allocator (slab size = %d):\n", conf.SlabSize)
	pm.Each(func(k, v int) {
		fmt.Fprintln(w, k, v)
	})

	fmt.Fprint(w, "\nvector with plain allocator:")
	plain := vector.New[int](nil)
	for i := 0; i < conf.Count; i++ {
		if err := plain.PushBack(i); err != nil {
			return report, err
		}
	}
	for _, x := range plain.All() {
		fmt.Fprint(w, " ", x)
	}
	fmt.Fprintln(w)

	vecBulk, err := newBulk[int](conf, reg, "slabpool_vector")
	if err != nil {
		return report, err
	}
	vecPool := alloc.Rebind[int](mapPool, vecBulk)
	defer vecPool.Close()
	fmt.Fprintf(w, "vector with pool allocator (slab size = %d):", vecPool.BlockSize())
	pooled := vector.New[int](vecPool)
	for i := 0; i < conf.Count; i++ {
		if err := pooled.PushBack(i); err != nil {
			return report, err
		}
	}
	for _, x := range pooled.All() {
		fmt.Fprint(w, " ", x)
	}
	fmt.Fprintln(w)

	report.Map = mapPool.Stats()
	report.Vector = vecPool.Stats()

	if err := plain.Release(); err != nil {
		return report, err
	}
	if err := pooled.Release(); err != nil {
		return report, err
	}
	if err := pm.Release(); err != nil {
		return report, err
	}
	if err := mapPool.Close(); err != nil {
		return report, err
	}
	if err := vecPool.Close(); err != nil {
		return report, err
	}
	report.MapTraffic = trafficOf(mapBulk)
	report.VectorTraffic = trafficOf(vecBulk)
	if n := mapBulk.Outstanding() + vecBulk.Outstanding(); n != 0 {
		return report, errors.Errorf("%d bytes still held after release", n)
	}
	return report, nil
}
