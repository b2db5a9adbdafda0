//go:build linux && amd64

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/magiconair/properties/assert"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Cores = 4
	cfg.Pages = 128
	cfg.KernelPages = 2
	cfg.Workers = 6
	cfg.Ops = 2000
	cfg.MaxHeld = 40
	return cfg
}

func TestRun(t *testing.T) {
	var (
		cfg = testConfig()
		m   = newMetrics()
	)

	report, err := Run(context.Background(), cfg, zap.NewNop(), m)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, report.TotalPages, cfg.Pages)
	assert.Equal(t, report.Allocs, report.Frees)
	assert.Equal(t, len(report.FreeByCore), cfg.Cores)

	total := 0
	for _, free := range report.FreeByCore {
		total += free
	}
	assert.Equal(t, total, cfg.Pages)

	// 6 workers holding up to 40 pages each contend for 128 pages so some
	// cores must run dry and steal.
	if report.Steals == 0 {
		t.Fatal("expected at least one page to be stolen")
	}

	assert.Equal(t, testutil.ToFloat64(m.allocs), float64(report.Allocs))
	assert.Equal(t, testutil.ToFloat64(m.frees), float64(report.Frees))
	assert.Equal(t, testutil.ToFloat64(m.exhausted), float64(report.Exhausted))
	assert.Equal(t, testutil.ToFloat64(m.steals), float64(report.Steals))
}

func TestRunSingleCore(t *testing.T) {
	cfg := testConfig()
	cfg.Cores = 1
	cfg.Workers = 1
	cfg.KernelPages = 0

	report, err := Run(context.Background(), cfg, zap.NewNop(), newMetrics())
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, report.Steals, uint64(0))
	assert.Equal(t, report.FreeByCore, []int{cfg.Pages})
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Run(ctx, testConfig(), zap.NewNop(), newMetrics()); err != context.Canceled {
		t.Fatalf("expected to get error %v; got %v", context.Canceled, err)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Cores = 0

	if _, err := Run(context.Background(), cfg, zap.NewNop(), newMetrics()); err == nil {
		t.Fatal("expected Run to reject an invalid config")
	}
}

func TestMetricsWriteTo(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 2
	cfg.Ops = 100

	m := newMetrics()
	report, err := Run(context.Background(), cfg, zap.NewNop(), m)
	if err != nil {
		t.Fatal(err)
	}

	file := filepath.Join(t.TempDir(), "pagesim.prom")
	if err := m.writeTo(file); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"pagesim_allocs_total", "pagesim_frees_total", `pagesim_free_pages{core="0"}`} {
		if !strings.Contains(string(data), name) {
			t.Errorf("expected metrics file to contain %s", name)
		}
	}

	assert.Equal(t, testutil.ToFloat64(m.allocs), float64(report.Allocs))
}
