package shell

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/inkstone/handsynth/render"
	"github.com/inkstone/handsynth/stroke"
)

func showCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:      "show",
		Help:      "show a stored sample",
		Completer: createWriterCompleter(ctx),
		LongHelp: `Usage: show [options] [writer] <sample>

Options:
  -o <file>     also render the sample's strokes to file
  -f <format>   svg, png, pdf or txt (default: from the file extension)`,
		Func: func(c *ishell.Context) {
			flagSet := flag.NewFlagSet("show", flag.ContinueOnError)
			output := flagSet.String("o", "", "output file")
			format := flagSet.String("f", "", "output format")
			if err := flagSet.Parse(c.Args); err != nil {
				if err != flag.ErrHelp {
					c.Err(err)
				}
				return
			}

			args := flagSet.Args()
			var writer, id string
			switch len(args) {
			case 1:
				w, err := ctx.writer(nil)
				if err != nil {
					c.Err(err)
					return
				}
				writer, id = w, args[0]
			case 2:
				writer, id = args[0], args[1]
			default:
				c.Err(errors.New("missing sample id"))
				return
			}

			smp, err := ctx.Store.Load(writer, id)
			if err != nil {
				c.Err(err)
				return
			}

			info := ctx.SampleToJSON(smp)
			if ctx.JSONOutput {
				if err := printJSON(c, info); err != nil {
					c.Err(err)
					return
				}
			} else {
				c.Printf("sample:     %s/%s\n", info.WriterID, info.SampleID)
				c.Printf("text:       %q\n", info.Text)
				c.Printf("recovered:  %q\n", info.RecoveredText)
				c.Printf("points:     %d\n", info.Points)
				c.Printf("divider:    %v\n", info.Divider)
				c.Printf("words:      %v\n", info.Words)
				for _, d := range info.Degenerates {
					c.Printf("degenerate: %s\n", d)
				}
			}

			if *output == "" {
				return
			}
			if err := renderFile(*output, *format, smp.Sentence.Raw); err != nil {
				c.Err(err)
				return
			}
			c.Printf("written to %s\n", *output)
		},
	}
}

// renderFile renders points to path, taking the format from the extension
// when none is given.
func renderFile(path, format string, points []stroke.Point) error {
	if format == "" {
		format = formatOf(path)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.Write(f, format, points, render.DefaultOptions()); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("can't write %s: %v", path, err)
	}
	return nil
}

func formatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
