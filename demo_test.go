package main

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/funny-falcon/slabpool/alloc"
	"github.com/funny-falcon/slabpool/config"
)

func TestFactorial(t *testing.T) {
	want := []int{1, 1, 2, 6, 24, 120, 720, 5040, 40320, 362880}
	for i, f := range want {
		assert.Equal(t, f, factorial(i))
	}
}

func TestRun(t *testing.T) {
	var out bytes.Buffer
	report, err := Run(&out, config.Default, prometheus.NewRegistry())
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "map with default allocator:\n0 1\n1 1\n2 2\n3 6\n")
	assert.Contains(t, text, "map with pool allocator (slab size = 10):\n0 1\n1 1\n")
	assert.Contains(t, text, "9 362880\n")
	assert.Contains(t, text, "vector with plain allocator: 0 1 2 3 4 5 6 7 8 9\n")
	assert.Contains(t, text, "vector with pool allocator (slab size = 10): 0 1 2 3 4 5 6 7 8 9\n")
	assert.Equal(t, 2, strings.Count(text, "9 362880\n"))

	assert.Equal(t, alloc.Stats{SlabSize: 10, Slabs: 1, Cursor: 10, InUse: 10}, report.Map)
	assert.Equal(t, 10, report.Vector.SlabSize)
	assert.Equal(t, 1, report.Vector.Bulk)
	assert.Equal(t, 1, report.Vector.Free)
	assert.Equal(t, report.MapTraffic.BytesAlloc, report.MapTraffic.BytesFree)
	assert.Equal(t, report.VectorTraffic.Allocs, report.VectorTraffic.Frees)
}

func TestRun_mmap(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("mmap provider is linux only")
	}
	conf := config.Default
	conf.Provider = "mmap"
	conf.SlabSize = 3
	var out bytes.Buffer
	report, err := Run(&out, conf, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Map.Slabs)
	assert.Contains(t, out.String(), "(slab size = 3)")
}

func TestPooledMap(t *testing.T) {
	pool := alloc.NewPool[entry](2, nil)
	m := newPooledMap(pool)
	for _, k := range []int{5, 1, 3, 1, 5} {
		require.NoError(t, m.Set(k, k*10))
	}
	require.NoError(t, m.Set(3, 7))
	assert.Equal(t, 3, m.Len())

	var got [][2]int
	m.Each(func(k, v int) {
		got = append(got, [2]int{k, v})
	})
	assert.Equal(t, [][2]int{{1, 10}, {3, 7}, {5, 50}}, got)
	st := pool.Stats()
	assert.Equal(t, 3, st.InUse)
	assert.Equal(t, 2, st.Slabs)

	require.NoError(t, m.Release())
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, pool.Stats().InUse)
	require.NoError(t, pool.Close())
}

func TestStatsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	report, err := Run(&bytes.Buffer{}, config.Default, reg)
	require.NoError(t, err)
	h := statsHandler(report, reg)

	get := func(method, path string) *fasthttp.RequestCtx {
		var req fasthttp.Request
		req.Header.SetMethod(method)
		req.SetRequestURI(path)
		var ctx fasthttp.RequestCtx
		ctx.Init(&req, nil, nil)
		h(&ctx)
		return &ctx
	}

	ctx := get("GET", "/stats")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var back Report
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &back))
	assert.Equal(t, report, back)

	ctx = get("GET", "/metrics")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "slabpool_map_bulk_alloc_bytes_total")

	assert.Equal(t, fasthttp.StatusNotFound, get("GET", "/nope").Response.StatusCode())
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, get("POST", "/stats").Response.StatusCode())
}
