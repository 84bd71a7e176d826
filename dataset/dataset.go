// Package dataset turns directories of raw captures into stored samples.
package dataset

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/inkstone/handsynth/capture"
	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/hierarchy"
	"github.com/inkstone/handsynth/log"
	"github.com/inkstone/handsynth/store"
	"github.com/inkstone/handsynth/stroke"
	"github.com/inkstone/handsynth/vocab"
)

// Config controls a build.
type Config struct {
	WriterID         string
	Convention       stroke.PenConvention
	Divider          float64
	PredictionOffset int
	// Text is used for .rm pages without a sibling .txt file.
	Text string
	// BatchSize bounds the number of captures built at once.
	BatchSize int64
	// FailFast stops scheduling new captures after the first failure.
	FailFast bool
}

// Result is the outcome of one capture.
type Result struct {
	File        string `json:"file"`
	SampleID    string `json:"sample_id,omitempty"`
	Text        string `json:"text,omitempty"`
	Degenerates int    `json:"degenerates"`
	Err         error  `json:"-"`
	Error       string `json:"error,omitempty"`
}

// Report collects the results of a build in input order.
type Report struct {
	WriterID string   `json:"writer_id"`
	Results  []Result `json:"results"`
	Built    int      `json:"built"`
	Failed   int      `json:"failed"`
}

// Collect returns the capture files of dir in name order.
func Collect(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.E(errs.Data, "dataset.Collect", errors.Wrapf(err, "can't read %s", dir))
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !capture.IsCapture(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// nextID returns the first numeric sample id above the writer's existing
// ones.
func nextID(st *store.Store, writerID string) int {
	ids, err := st.List(writerID)
	if err != nil {
		return 0
	}
	next := 0
	for _, id := range ids {
		if n, err := strconv.Atoi(id); err == nil && n >= next {
			next = n + 1
		}
	}
	return next
}

// Build reads every file, builds its sample and saves it to st. Files are
// processed concurrently, at most cfg.BatchSize at a time. Sample ids are
// numbered after the writer's existing samples in file order. Per-file
// failures are reported in the Report; the returned error is only set when
// the build could not run at all.
func Build(ctx context.Context, st *store.Store, v *vocab.Vocabulary, files []string, cfg Config) (*Report, error) {
	const op = "dataset.Build"

	if cfg.WriterID == "" {
		return nil, errs.Errorf(errs.Validation, op, "writer id is required")
	}
	if cfg.Convention == "" {
		cfg.Convention = stroke.EndFlag
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 4
	}

	report := &Report{WriterID: cfg.WriterID, Results: make([]Result, len(files))}
	first := nextID(st, cfg.WriterID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var once sync.Once
	sem := semaphore.NewWeighted(cfg.BatchSize)
	for i, file := range files {
		report.Results[i].File = file
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Trace.Printf("Failed to acquire semaphore: %v", err)
			report.Results[i].Err = err
			continue
		}
		go func(i int, file string) {
			defer sem.Release(1)
			res := &report.Results[i]
			buildOne(st, v, file, strconv.Itoa(first+i), cfg, res)
			if res.Err != nil && cfg.FailFast {
				once.Do(cancel)
			}
		}(i, file)
	}

	// wait for all goroutines to finish
	if err := sem.Acquire(context.Background(), cfg.BatchSize); err != nil {
		log.Trace.Printf("Failed to acquire semaphore: %v", err)
	}

	for i := range report.Results {
		res := &report.Results[i]
		if res.Err != nil {
			res.Error = res.Err.Error()
			report.Failed++
			continue
		}
		report.Built++
	}
	log.Info.Printf("writer %s: built %d samples, %d failed", cfg.WriterID, report.Built, report.Failed)
	return report, nil
}

func buildOne(st *store.Store, v *vocab.Vocabulary, file, sampleID string, cfg Config, res *Result) {
	c, err := capture.Load(file, cfg.Text, cfg.Convention)
	if err != nil {
		log.Warning.Printf("%s: %v", file, err)
		res.Err = err
		return
	}

	opts := hierarchy.Options{
		Divider:          cfg.Divider,
		PredictionOffset: cfg.PredictionOffset,
		WriterID:         cfg.WriterID,
		SampleID:         sampleID,
		Meta:             c.Meta(),
	}
	smp, err := hierarchy.NewBuilder(v, opts).Build(c.Text, c.Points, c.Labels)
	if err != nil {
		log.Warning.Printf("%s: %v", file, err)
		res.Err = errors.WithMessage(err, file)
		return
	}

	if err := st.Save(smp); err != nil {
		log.Warning.Printf("%s: %v", file, err)
		res.Err = err
		return
	}

	res.SampleID = smp.SampleID
	res.Text = smp.Text
	res.Degenerates = len(smp.Degenerates())
	log.Trace.Printf("%s -> %s/%s", file, smp.WriterID, smp.SampleID)
}
