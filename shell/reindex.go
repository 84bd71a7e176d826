package shell

import (
	"github.com/abiosoft/ishell"
)

func reindexCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "reindex",
		Help: "rescan the store and rebuild its index",
		Func: func(c *ishell.Context) {
			idx, err := ctx.Store.Reindex()
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("store hash: %s\nsamples: %d\n", idx.Hash, len(idx.Entries))
		},
	}
}
