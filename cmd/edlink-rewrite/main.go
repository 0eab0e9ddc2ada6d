// edlink-rewrite replaces the selection with a version rewritten by a
// Google Gen AI model.
package main

import (
	"context"
	_ "embed"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/edlink/pkg/plugin"
)

//go:embed plugin.yaml
var manifest []byte

func main() {
	plugin.Main(plugin.MustLoadInfo(manifest), func(s *plugin.Session) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r := &rewrite{
			client: s.Client,
			ctx:    s.Context,
			logger: s.Logger(),
			newModel: func(backend string) (Model, error) {
				m, err := newGenAIModel(backend)
				if err != nil {
					return nil, err
				}
				return m, nil
			},
		}
		cmd := r.command()
		cmd.SetArgs(s.Args[1:])
		return cmd.ExecuteContext(ctx)
	})
}
