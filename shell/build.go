package shell

import (
	"context"
	"errors"
	"flag"

	"github.com/abiosoft/ishell"
)

func buildCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "build",
		Help: "build samples of a writer from a capture directory",
		LongHelp: `Usage: build [options] [writer] <capture dir>

Options:
  -text <text>   text of .rm pages that have no .txt file
  -failfast      stop at the first capture that fails`,
		Func: func(c *ishell.Context) {
			flagSet := flag.NewFlagSet("build", flag.ContinueOnError)
			text := flagSet.String("text", "", "text of .rm pages")
			failFast := flagSet.Bool("failfast", false, "stop at the first failure")
			if err := flagSet.Parse(c.Args); err != nil {
				if err != flag.ErrHelp {
					c.Err(err)
				}
				return
			}

			args := flagSet.Args()
			req := BuildRequest{Text: *text, FailFast: *failFast}
			switch len(args) {
			case 1:
				w, err := ctx.writer(nil)
				if err != nil {
					c.Err(err)
					return
				}
				req.Writer, req.Dir = w, args[0]
			case 2:
				req.Writer, req.Dir = args[0], args[1]
			default:
				c.Err(errors.New("missing capture directory"))
				return
			}

			c.Printf("building writer %s from %s...\n", req.Writer, req.Dir)
			report, err := ctx.Build(context.Background(), req)
			if err != nil {
				c.Err(err)
				return
			}

			if ctx.JSONOutput {
				if err := printJSON(c, report); err != nil {
					c.Err(err)
				}
				return
			}
			for _, r := range report.Results {
				if r.Err != nil {
					c.Printf("  failed  %s: %v\n", r.File, r.Err)
					continue
				}
				c.Printf("  %-6s  %s %q", r.SampleID, r.File, r.Text)
				if r.Degenerates > 0 {
					c.Printf(" (%d degenerate units)", r.Degenerates)
				}
				c.Println()
			}
			c.Printf("built %d, failed %d\n", report.Built, report.Failed)
		},
	}
}
