// Command tabsynth-web starts a tiny web UI for the synthesizer.
//
// Usage:
//
//	go run ./cmd/tabsynth-web -addr :8080
package main

import (
	"flag"
	"log"
	"os"

	"tabsynth/internal/webui"

	_ "tabsynth/internal/synth/all" // register all generation backends
)

// server is the minimal surface run needs; *webui.Server satisfies it.
type server interface {
	ListenAndServe() error
}

// newServer is a seam so tests can substitute a fake listener.
var newServer = func(cfg webui.Config) server {
	return webui.NewServer(cfg)
}

// run parses args, starts the server and blocks until it exits.
func run(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("tabsynth-web", flag.ContinueOnError)
	fs.SetOutput(logger.Writer())
	addr := fs.String("addr", ":8080", "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srv := newServer(webui.Config{
		Addr: *addr,
	})
	logger.Printf("listening on %s", *addr)
	return srv.ListenAndServe()
}

func main() {
	if err := run(os.Args[1:], log.Default()); err != nil {
		log.Fatal(err)
	}
}
