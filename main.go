package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/inkstone/handsynth/config"
	"github.com/inkstone/handsynth/log"
	"github.com/inkstone/handsynth/model"
	"github.com/inkstone/handsynth/model/modeltest"
	"github.com/inkstone/handsynth/model/remote"
	"github.com/inkstone/handsynth/shell"
	"github.com/inkstone/handsynth/version"
)

func main() {
	jsonOutput := flag.Bool("json", false, "JSON output")
	serverMode := flag.Bool("server", false, "run the HTTP API")
	port := flag.String("port", "", "HTTP port (default from config)")
	serveModel := flag.String("serve-model", "", "serve the stub model on this address, for development")
	showVersion := flag.Bool("version", false, "show version and exit")
	flag.Parse()

	log.InitLog()

	if *showVersion {
		fmt.Println(version.Version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error.Fatalln(err)
	}

	if *serveModel != "" {
		runModelServer(cfg, *serveModel)
		return
	}

	shellCtx, err := shell.NewShellCtxt(cfg)
	if err != nil {
		log.Error.Fatalln(err)
	}
	shellCtx.JSONOutput = *jsonOutput

	if *serverMode {
		p := *port
		if p == "" {
			p = cfg.Server.Port
		}
		runServerMode(shellCtx, p)
		return
	}

	if err := shell.RunShell(shellCtx, flag.Args()); err != nil {
		log.Error.Println("Error: ", err)
		os.Exit(1)
	}
}

// runModelServer exposes the stub model over the remote model protocol.
func runModelServer(cfg *config.Config, addr string) {
	if cfg.Model.Key == "" || cfg.Model.Secret == "" {
		log.Error.Fatalln("model key and secret are required to serve a model")
	}
	h := remote.NewHandler(modeltest.New(model.DefaultSpec()), cfg.Model.Key, cfg.Model.Secret)
	log.Warning.Printf("serving the stub model on %s", addr)
	if err := http.ListenAndServe(addr, h); err != nil {
		log.Error.Fatalf("model server failed: %v", err)
	}
}
