package shell

import (
	"context"
	"math/rand"
	"time"

	"github.com/inkstone/handsynth/dataset"
	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/log"
	"github.com/inkstone/handsynth/sampler"
	"github.com/inkstone/handsynth/style"
)

// BuildRequest asks for the captures of Dir to be built into samples of
// Writer.
type BuildRequest struct {
	Writer string `json:"writer"`
	Dir    string `json:"dir"`
	// Files, when set, are built instead of the captures of Dir.
	Files []string `json:"files,omitempty"`
	// Text is used for .rm pages without a sibling .txt file.
	Text     string `json:"text,omitempty"`
	FailFast bool   `json:"fail_fast,omitempty"`
}

// Build builds and stores the samples of a writer.
func (ctx *ShellCtxt) Build(c context.Context, req BuildRequest) (*dataset.Report, error) {
	files := req.Files
	if len(files) == 0 {
		if req.Dir == "" {
			return nil, errs.Errorf(errs.Validation, "shell.Build", "a capture directory or files are required")
		}
		var err error
		if files, err = dataset.Collect(req.Dir); err != nil {
			return nil, err
		}
	}
	if len(files) == 0 {
		return nil, errs.Errorf(errs.Data, "shell.Build", "no captures in %s", req.Dir)
	}

	cfg := ctx.Config.DatasetConfig(req.Writer)
	cfg.Text = req.Text
	cfg.FailFast = req.FailFast

	l := ctx.writerLock(cfg.WriterID)
	l.Lock()
	defer l.Unlock()
	return dataset.Build(c, ctx.Store, ctx.Vocab, files, cfg)
}

// StyleRequest selects the writers whose styles are blended. Weights
// default to equal shares.
type StyleRequest struct {
	Writers []string  `json:"writers"`
	Weights []float64 `json:"weights,omitempty"`
}

// Style extracts the style of every writer and blends them. It also
// returns the coordinate divider the writers share.
func (ctx *ShellCtxt) Style(c context.Context, req StyleRequest) (style.Embedding, float64, error) {
	const op = "shell.Style"

	if len(req.Writers) == 0 {
		return nil, 0, errs.Errorf(errs.Validation, op, "at least one writer is required")
	}
	weights := req.Weights
	if len(weights) == 0 {
		weights = make([]float64, len(req.Writers))
		for i := range weights {
			weights[i] = 1
		}
	}

	m, err := ctx.Model(c)
	if err != nil {
		return nil, 0, err
	}
	extractor := style.NewExtractor(m)

	var (
		embeddings []style.Embedding
		divider    float64
	)
	for i, w := range req.Writers {
		samples, err := ctx.Store.LoadWriter(w)
		if err != nil {
			return nil, 0, err
		}
		d, err := style.Divider(samples)
		if err != nil {
			return nil, 0, err
		}
		if i > 0 && d != divider {
			return nil, 0, errs.Errorf(errs.Data, op, "writer %s uses divider %v, %s uses %v", w, d, req.Writers[0], divider)
		}
		divider = d

		emb, err := extractor.Extract(c, samples)
		if err != nil {
			return nil, 0, err
		}
		log.Trace.Printf("style of %s from %d samples", w, len(samples))
		embeddings = append(embeddings, emb)
	}

	if len(embeddings) == 1 && len(req.Weights) == 0 {
		return embeddings[0], divider, nil
	}
	blended, err := style.Blend(weights, embeddings)
	if err != nil {
		return nil, 0, err
	}
	return blended, divider, nil
}

// GenerateRequest asks for Text in the style of Writers.
type GenerateRequest struct {
	Text string `json:"text"`
	StyleRequest
	// Seed makes the output reproducible. 0 picks a random seed.
	Seed int64    `json:"seed,omitempty"`
	Bias *float64 `json:"bias,omitempty"`
}

// Generate writes text in the requested style. The seed used is returned
// with the result.
func (ctx *ShellCtxt) Generate(c context.Context, req GenerateRequest) (*sampler.Result, int64, error) {
	if req.Bias != nil && *req.Bias < 0 {
		return nil, 0, errs.Errorf(errs.Validation, "shell.Generate", "bias must not be negative")
	}
	emb, divider, err := ctx.Style(c, req.StyleRequest)
	if err != nil {
		return nil, 0, err
	}
	m, err := ctx.Model(c)
	if err != nil {
		return nil, 0, err
	}

	cfg := ctx.Config.Sampler
	cfg.Divider = divider
	if req.Bias != nil {
		cfg.Bias = *req.Bias
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := sampler.New(m, ctx.Vocab, cfg, rand.New(rand.NewSource(seed)))
	res, err := g.Generate(c, req.Text, emb)
	if err != nil {
		return nil, 0, err
	}
	return res, seed, nil
}
