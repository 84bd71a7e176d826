// Package shell is the interactive front end. Commands share a ShellCtxt,
// which the HTTP server reuses for its handlers.
package shell

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/abiosoft/ishell"

	"github.com/inkstone/handsynth/config"
	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/log"
	"github.com/inkstone/handsynth/model"
	"github.com/inkstone/handsynth/model/modeltest"
	"github.com/inkstone/handsynth/model/remote"
	"github.com/inkstone/handsynth/store"
	"github.com/inkstone/handsynth/vocab"
)

// ShellCtxt is the state shared by commands.
type ShellCtxt struct {
	Store      *store.Store
	Vocab      *vocab.Vocabulary
	Config     *config.Config
	JSONOutput bool
	// Writer is the current writer, used when a command omits one.
	Writer string

	mu       sync.Mutex
	model    model.Model
	building map[string]*sync.Mutex
}

// writerLock returns the lock that serializes builds of writer. Sample ids
// are allocated from the store contents, so two builds of one writer must
// not overlap.
func (ctx *ShellCtxt) writerLock(writer string) *sync.Mutex {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.building == nil {
		ctx.building = map[string]*sync.Mutex{}
	}
	l, ok := ctx.building[writer]
	if !ok {
		l = &sync.Mutex{}
		ctx.building[writer] = l
	}
	return l
}

// NewShellCtxt opens the store named by cfg.
func NewShellCtxt(cfg *config.Config) (*ShellCtxt, error) {
	st, err := store.Open(cfg.StoreDir)
	if err != nil {
		return nil, err
	}
	return &ShellCtxt{Store: st, Vocab: vocab.Default(), Config: cfg}, nil
}

// SetModel replaces the model, mainly for tests.
func (ctx *ShellCtxt) SetModel(m model.Model) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.model = m
}

// Model returns the configured model, dialing the model server on first
// use.
func (ctx *ShellCtxt) Model(c context.Context) (model.Model, error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.model != nil {
		return ctx.model, nil
	}
	if ctx.Config.Model.Stub {
		log.Warning.Println("using the stub model, output is not real handwriting")
		ctx.model = modeltest.New(model.DefaultSpec())
		return ctx.model, nil
	}
	m, err := remote.Dial(c, ctx.Config.Remote())
	if err != nil {
		return nil, err
	}
	ctx.model = m
	return m, nil
}

func (ctx *ShellCtxt) prompt() string {
	if ctx.Writer == "" {
		return "[handsynth]>"
	}
	return fmt.Sprintf("[handsynth %s]>", ctx.Writer)
}

// writer picks the explicit writer or falls back to the current one.
func (ctx *ShellCtxt) writer(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if ctx.Writer != "" {
		return ctx.Writer, nil
	}
	return "", errs.Errorf(errs.Validation, "shell", "missing writer id")
}

// RunShell runs args as a single command, or an interactive session when
// args is empty.
func RunShell(ctx *ShellCtxt, args []string) error {
	shell := ishell.New()
	shell.SetPrompt(ctx.prompt())

	shell.AddCmd(buildCmd(ctx))
	shell.AddCmd(useCmd(ctx))
	shell.AddCmd(lsCmd(ctx))
	shell.AddCmd(showCmd(ctx))
	shell.AddCmd(rmCmd(ctx))
	shell.AddCmd(reindexCmd(ctx))
	shell.AddCmd(styleCmd(ctx))
	shell.AddCmd(generateCmd(ctx))
	shell.AddCmd(tokenCmd(ctx))
	shell.AddCmd(versionCmd(ctx))

	if len(args) > 0 {
		return shell.Process(args...)
	}

	shell.Printf("handsynth, store: %s\n", ctx.Store.Root())
	shell.Run()
	return nil
}

// splitList splits a comma separated flag value.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
