package shell

import (
	"errors"
	"flag"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/inkstone/handsynth/auth"
)

func tokenCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "token",
		Help: "issue a bearer token for the HTTP API",
		Func: func(c *ishell.Context) {
			flagSet := flag.NewFlagSet("token", flag.ContinueOnError)
			ttl := flagSet.Duration("ttl", 24*time.Hour, "token lifetime")
			if err := flagSet.Parse(c.Args); err != nil {
				if err != flag.ErrHelp {
					c.Err(err)
				}
				return
			}
			args := flagSet.Args()
			if len(args) == 0 {
				c.Err(errors.New("missing subject"))
				return
			}

			token, err := auth.Issue(ctx.Config.Server.JWTSecret, args[0], *ttl)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(token)
		},
	}
}
