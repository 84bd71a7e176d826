package shell

import (
	"errors"

	"github.com/abiosoft/ishell"
)

func rmCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:      "rm",
		Help:      "delete samples of the current writer",
		Completer: createSampleCompleter(ctx),
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(errors.New("missing sample id"))
				return
			}
			writer, err := ctx.writer(nil)
			if err != nil {
				c.Err(err)
				return
			}

			for _, id := range c.Args {
				if err := ctx.Store.Delete(writer, id); err != nil {
					c.Err(err)
					return
				}
			}
		},
	}
}

func createSampleCompleter(ctx *ShellCtxt) func([]string) []string {
	return func(args []string) []string {
		if ctx.Writer == "" {
			return nil
		}
		ids, err := ctx.Store.List(ctx.Writer)
		if err != nil {
			return nil
		}
		return ids
	}
}
