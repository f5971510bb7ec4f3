package grid

import (
	"context"
	"sync"

	"github.com/star/satangles/internal/metrics"
)

// rowRange is a unit of work for the worker pool: rows [start, end).
type rowRange struct {
	start, end int
}

// rangeResult is the output of one row range.
type rangeResult struct {
	stats RowStats
	rows  int
}

// chunkRows picks a range size that gives each worker several jobs.
func chunkRows(rows, workers int) int {
	n := rows / (workers * 4)
	if n < 1 {
		n = 1
	}
	return n
}

// runPool computes all rows of p with the driver's worker count. Each row is
// owned by exactly one range, so accumulators need no locking. Context is
// checked between rows.
func (d *Driver) runPool(ctx context.Context, p *Pass, out *Output) (RowStats, int, error) {
	rows := p.scene.Rows
	chunk := chunkRows(rows, d.cfg.Workers)

	jobs := make(chan rowRange, d.cfg.Workers*2)
	results := make(chan rangeResult, d.cfg.Workers*2)

	var wg sync.WaitGroup
	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				var res rangeResult
				for row := job.start; row < job.end; row++ {
					if ctx.Err() != nil {
						break
					}
					res.stats.merge(p.ComputeRow(row, out))
					res.rows++
					metrics.RecordRow()
				}
				results <- res
			}
		}()
	}

	go func() {
		defer close(jobs)
		for start := 0; start < rows; start += chunk {
			job := rowRange{start: start, end: min(start+chunk, rows)}
			select {
			case jobs <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		total RowStats
		done  int
	)
	for res := range results {
		total.merge(res.stats)
		done += res.rows
	}

	if err := ctx.Err(); err != nil && done < rows {
		return total, done, err
	}
	return total, done, nil
}
