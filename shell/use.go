package shell

import (
	"errors"

	"github.com/abiosoft/ishell"
)

func useCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:      "use",
		Help:      "set the current writer",
		Completer: createWriterCompleter(ctx),
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(errors.New("missing writer id"))
				return
			}

			writer := c.Args[0]
			ids, err := ctx.Store.List(writer)
			if err != nil {
				c.Err(err)
				return
			}
			if len(ids) == 0 {
				c.Printf("writer %s has no samples yet\n", writer)
			}

			ctx.Writer = writer
			c.SetPrompt(ctx.prompt())
		},
	}
}

func createWriterCompleter(ctx *ShellCtxt) func([]string) []string {
	return func(args []string) []string {
		writers, err := ctx.Store.Writers()
		if err != nil {
			return nil
		}
		return writers
	}
}
