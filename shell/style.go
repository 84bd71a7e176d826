package shell

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"
)

// parseWeights reads a comma separated list of weights.
func parseWeights(s string) ([]float64, error) {
	var out []float64
	for _, p := range splitList(s) {
		w, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("bad weight %q", p)
		}
		out = append(out, w)
	}
	return out, nil
}

// styleFlags parses the writer selection shared by style and generate.
func styleFlags(ctx *ShellCtxt, flagSet *flag.FlagSet) func() (StyleRequest, error) {
	writers := flagSet.String("w", "", "comma separated writers (default: current writer)")
	weights := flagSet.String("weights", "", "comma separated blend weights")
	return func() (StyleRequest, error) {
		req := StyleRequest{Writers: splitList(*writers)}
		if len(req.Writers) == 0 {
			w, err := ctx.writer(nil)
			if err != nil {
				return req, err
			}
			req.Writers = []string{w}
		}
		var err error
		req.Weights, err = parseWeights(*weights)
		return req, err
	}
}

func styleCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "style",
		Help: "extract the style vector of one or more writers",
		LongHelp: `Usage: style [options]

Options:
  -w <a,b>          writers to blend (default: current writer)
  -weights <1,2>    blend weights (default: equal)`,
		Func: func(c *ishell.Context) {
			flagSet := flag.NewFlagSet("style", flag.ContinueOnError)
			selection := styleFlags(ctx, flagSet)
			if err := flagSet.Parse(c.Args); err != nil {
				if err != flag.ErrHelp {
					c.Err(err)
				}
				return
			}
			req, err := selection()
			if err != nil {
				c.Err(err)
				return
			}

			emb, divider, err := ctx.Style(context.Background(), req)
			if err != nil {
				c.Err(err)
				return
			}

			if ctx.JSONOutput {
				if err := printJSON(c, map[string]interface{}{
					"writers": req.Writers,
					"divider": divider,
					"style":   emb,
				}); err != nil {
					c.Err(err)
				}
				return
			}
			if len(emb) == 0 {
				c.Err(errors.New("empty style"))
				return
			}
			head := emb
			if len(head) > 8 {
				head = head[:8]
			}
			c.Printf("style of %v: %d values, divider %v\n", req.Writers, len(emb), divider)
			c.Printf("  %.4f ...\n", head)
		},
	}
}
