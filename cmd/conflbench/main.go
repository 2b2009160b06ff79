// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command conflbench measures enqueue throughput of the three conflation
// engines across producer counts and renders the comparison as an HTML
// line chart.
//
// Usage:
//
//	conflbench -ops 2000000 -keys 64 -out conflbench.html
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"code.hybscloud.com/iox"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"code.hybscloud.com/conflq"
)

var producerCounts = []int{1, 2, 4, 8}

type tick struct {
	seq   int64
	count int64
}

func main() {
	ops := flag.Int("ops", 1_000_000, "enqueues per measurement")
	keys := flag.Int("keys", 64, "distinct conflation keys")
	out := flag.String("out", "conflbench.html", "output HTML path")
	flag.Parse()

	engines := []struct {
		name string
		run  func(producers, ops, keys int) time.Duration
	}{
		{"overwrite", runOverwrite},
		{"evict", runEvict},
		{"merge", runMerge},
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "conflq enqueue throughput",
			Subtitle: fmt.Sprintf("%d enqueues over %d keys", *ops, *keys),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "producers"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Mops/s"}),
	)

	xs := make([]string, len(producerCounts))
	for i, p := range producerCounts {
		xs[i] = fmt.Sprintf("%d", p)
	}
	line.SetXAxis(xs)

	for _, eng := range engines {
		series := make([]opts.LineData, 0, len(producerCounts))
		for _, p := range producerCounts {
			elapsed := eng.run(p, *ops, *keys)
			mops := float64(*ops) / elapsed.Seconds() / 1e6
			fmt.Printf("%-9s producers=%d %8.2f Mops/s\n", eng.name, p, mops)
			series = append(series, opts.LineData{Value: mops})
		}
		line.AddSeries(eng.name, series)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create %s: %v", *out, err)
	}
	defer f.Close()
	if err := line.Render(f); err != nil {
		log.Fatalf("render chart: %v", err)
	}
	fmt.Printf("wrote %s\n", *out)
}

func runOverwrite(producers, ops, keys int) time.Duration {
	q := conflq.BuildOverwrite[int, tick](conflq.New(keys+1), conflq.EnumKeys[int](keys))
	return drive(producers, ops, keys, q.Enqueue, q.Poll)
}

func runEvict(producers, ops, keys int) time.Duration {
	q := conflq.BuildEvict[int, tick](conflq.New(keys+1), conflq.EnumKeys[int](keys))
	return drive(producers, ops, keys, q.Enqueue, q.Poll)
}

func runMerge(producers, ops, keys int) time.Duration {
	merger := conflq.MergerFunc[int, tick](func(_ int, older, newer *tick) *tick {
		newer.count += older.count
		return newer
	})
	q := conflq.BuildMerge[int, tick](conflq.New(keys+1), conflq.EnumKeys[int](keys), merger)
	return drive(producers, ops, keys, q.Enqueue, q.Poll)
}

func drive(
	producers, ops, keys int,
	enqueue func(int, *tick) (*tick, error),
	poll func() (*tick, error),
) time.Duration {
	var wg sync.WaitGroup
	done := make(chan struct{})
	start := time.Now()

	for p := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			backoff := iox.Backoff{}
			n := ops / producers
			for i := range n {
				v := &tick{seq: int64(i), count: 1}
				key := (id + i) % keys
				for {
					spare, err := enqueue(key, v)
					if err == nil {
						break
					}
					if !conflq.IsWouldBlock(err) {
						panic(err)
					}
					if spare != nil {
						v = spare // rolled back; retry with the withdrawn value
					}
					backoff.Wait()
				}
				backoff.Reset()
			}
		}(p)
	}

	var cwg sync.WaitGroup
	cwg.Add(1)
	go func() {
		defer cwg.Done()
		backoff := iox.Backoff{}
		for {
			if _, err := poll(); err != nil {
				select {
				case <-done:
					return
				default:
				}
				backoff.Wait()
				continue
			}
			backoff.Reset()
		}
	}()

	wg.Wait()
	elapsed := time.Since(start)
	close(done)
	cwg.Wait()

	// Single consumer again: drain remaining pending keys before teardown.
	for {
		if _, err := poll(); err != nil {
			break
		}
	}
	return elapsed
}
