package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/estuary/streambench/internal/config"
	"github.com/estuary/streambench/internal/endpoint"
	hibenchgen "github.com/estuary/streambench/internal/generators/hibench"
	nexmarkgen "github.com/estuary/streambench/internal/generators/nexmark"
	ysbgen "github.com/estuary/streambench/internal/generators/ysb"
)

// runGenerate materializes synthetic workload data to {data-dir}/{suite}/
// following spec.md §6's persisted-state layout, one file per
// partition, written concurrently.
func runGenerate(c *config.Config) error {
	dataDir := c.GetOr("data-dir", "data")
	partitions := c.GetInt("threads", 1)

	suites := map[string]func(string, int, *config.Config) error{
		"hibench": generateHiBench,
		"ysb":     generateYSB,
		"nexmark": generateNEXMark,
	}
	ran := false
	for name, fn := range suites {
		if !matches(c, "benchmarks", name) {
			continue
		}
		ran = true
		fmt.Printf("generating %s data under %s/%s across %d partition(s)\n", name, dataDir, name, partitions)
		if err := fn(dataDir, partitions, c); err != nil {
			return fmt.Errorf("generating %s: %w", name, err)
		}
	}
	if !ran {
		return fmt.Errorf("configuration error: no benchmark matched --benchmarks")
	}
	return nil
}

func generateHiBench(dataDir string, partitions int, c *config.Config) error {
	dir := filepath.Join(dataDir, "hibench")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return parallelPartitions(partitions, func(p int) error {
		drain, err := endpoint.CreateFileDrain[hibenchgen.Record](
			filepath.Join(dir, fmt.Sprintf("events-%d.csv", p)), hibenchgen.FromLine)
		if err != nil {
			return err
		}
		defer drain.Close()
		return drainAll[hibenchgen.Record](hibenchgen.NewGenerator(c), drain)
	})
}

func generateYSB(dataDir string, partitions int, c *config.Config) error {
	dir := filepath.Join(dataDir, "ysb")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	table := ysbgen.BuildCampaignTable(c.GetInt("ads", 100))
	payload, err := ysbgen.MarshalCampaigns(table)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "campaigns.json"), payload, 0o644); err != nil {
		return err
	}
	return parallelPartitions(partitions, func(p int) error {
		drain, err := endpoint.CreateFileDrain[ysbgen.Event](
			filepath.Join(dir, fmt.Sprintf("events-%d.json", p)), ysbgen.FromLine)
		if err != nil {
			return err
		}
		defer drain.Close()
		return drainAll[ysbgen.Event](ysbgen.NewGenerator(c), drain)
	})
}

func generateNEXMark(dataDir string, partitions int, c *config.Config) error {
	dir := filepath.Join(dataDir, "nexmark")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return parallelPartitions(partitions, func(p int) error {
		drain, err := endpoint.CreateFileDrain[nexmarkgen.Event](
			filepath.Join(dir, fmt.Sprintf("events-%d.json", p)), nexmarkgen.MarshalEvent)
		if err != nil {
			return err
		}
		defer drain.Close()
		return drainAll[nexmarkgen.Event](nexmarkgen.NewGenerator(c), drain)
	})
}

// drainAll pulls every batch from src and pushes it to dst, stopping
// cleanly on out-of-data.
func drainAll[D any](src endpoint.Source[D], dst endpoint.Drain[D]) error {
	for {
		t, batch, err := src.Next()
		if endpoint.IsOutOfData(err) {
			return nil
		}
		if err != nil {
			return err
		}
		dst.Push(t, batch)
	}
}

// parallelPartitions runs fn(0..n) concurrently, one goroutine per
// partition — each partition runs its own generator writing its own
// file, so there's no shared state to coordinate. It returns the
// lowest-indexed partition's error, if any. The generate* callers
// build every partition's generator from the same config, so all
// partitions of a suite hold identical data.
func parallelPartitions(n int, fn func(int) error) error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	for p := 0; p < n; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			errs[p] = fn(p)
		}(p)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
