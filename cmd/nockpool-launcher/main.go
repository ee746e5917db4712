// nockpool-launcher downloads, updates, and supervises the nockpool
// miner binary.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ligne12/nockpool-miner-launcher/cmd/nockpool-launcher/cli"
)

func main() {
	var root cli.CLI

	parser, err := kong.New(&root, cli.KongOptions()...)
	if err != nil {
		panic(err)
	}

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	// SIGINT and SIGTERM cancel the context; the run command stops the
	// miner child and returns cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.FatalIfErrorf(kctx.Run(&root))
}
