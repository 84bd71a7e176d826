package shell

import (
	"github.com/abiosoft/ishell"

	"github.com/inkstone/handsynth/store"
)

// WriterJSON summarizes one writer.
type WriterJSON struct {
	ID      string `json:"id"`
	Samples int    `json:"samples"`
	Points  int    `json:"points"`
}

// Writers summarizes every writer of the store.
func (ctx *ShellCtxt) Writers() ([]WriterJSON, error) {
	idx, err := ctx.Store.Index()
	if err != nil {
		return nil, err
	}
	writers, err := ctx.Store.Writers()
	if err != nil {
		return nil, err
	}

	out := make([]WriterJSON, 0, len(writers))
	for _, w := range writers {
		wj := WriterJSON{ID: w}
		for _, e := range idx.Writer(w) {
			wj.Samples++
			wj.Points += e.Points
		}
		out = append(out, wj)
	}
	return out, nil
}

// Samples returns the index entries of a writer.
func (ctx *ShellCtxt) Samples(writer string) ([]store.Entry, error) {
	if _, err := ctx.Store.List(writer); err != nil {
		return nil, err
	}
	idx, err := ctx.Store.Index()
	if err != nil {
		return nil, err
	}
	entries := idx.Writer(writer)
	if entries == nil {
		entries = []store.Entry{}
	}
	return entries, nil
}

func lsCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:      "ls",
		Help:      "list writers, or the samples of a writer",
		Completer: createWriterCompleter(ctx),
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 && ctx.Writer == "" {
				writers, err := ctx.Writers()
				if err != nil {
					c.Err(err)
					return
				}
				if ctx.JSONOutput {
					if err := printJSON(c, writers); err != nil {
						c.Err(err)
					}
					return
				}
				for _, w := range writers {
					c.Printf("[w]\t%s\t%d samples\n", w.ID, w.Samples)
				}
				return
			}

			writer, err := ctx.writer(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			entries, err := ctx.Samples(writer)
			if err != nil {
				c.Err(err)
				return
			}
			if ctx.JSONOutput {
				if err := printJSON(c, entries); err != nil {
					c.Err(err)
				}
				return
			}
			for _, e := range entries {
				displayEntry(c, e)
			}
		},
	}
}
