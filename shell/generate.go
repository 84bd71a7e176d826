package shell

import (
	"context"
	"errors"
	"flag"
	"strings"

	"github.com/abiosoft/ishell"
)

func generateCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "generate",
		Help: "write text in the style of a writer",
		LongHelp: `Usage: generate [options] <text>

Options:
  -w <a,b>          writers to blend (default: current writer)
  -weights <1,2>    blend weights (default: equal)
  -seed <n>         random seed (default: random)
  -bias <b>         sampling bias, larger is neater
  -o <file>         output file (default: <text>.svg)
  -f <format>       svg, png, pdf or txt (default: from the file extension)`,
		Func: func(c *ishell.Context) {
			flagSet := flag.NewFlagSet("generate", flag.ContinueOnError)
			selection := styleFlags(ctx, flagSet)
			seed := flagSet.Int64("seed", 0, "random seed")
			bias := flagSet.Float64("bias", -1, "sampling bias")
			output := flagSet.String("o", "", "output file")
			format := flagSet.String("f", "", "output format")
			if err := flagSet.Parse(c.Args); err != nil {
				if err != flag.ErrHelp {
					c.Err(err)
				}
				return
			}

			text := strings.Join(flagSet.Args(), " ")
			if strings.TrimSpace(text) == "" {
				c.Err(errors.New("missing text"))
				return
			}
			style, err := selection()
			if err != nil {
				c.Err(err)
				return
			}

			req := GenerateRequest{Text: text, StyleRequest: style, Seed: *seed}
			if *bias >= 0 {
				req.Bias = bias
			}

			res, usedSeed, err := ctx.Generate(context.Background(), req)
			if err != nil {
				c.Err(err)
				return
			}

			for _, w := range res.Words {
				note := ""
				if w.Truncated {
					note += " truncated"
				}
				if w.Capped {
					note += " capped"
				}
				c.Printf("  %-12q %4d steps%s\n", w.Text, w.Steps, note)
			}

			path := *output
			if path == "" {
				path = fileName(text) + ".svg"
			}
			if err := renderFile(path, *format, res.Points); err != nil {
				c.Err(err)
				return
			}
			c.Printf("written to %s (seed %d)\n", path, usedSeed)
		},
	}
}

// fileName turns text into a safe file name.
func fileName(text string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, strings.TrimSpace(text))
	if len(name) > 40 {
		name = name[:40]
	}
	return name
}
