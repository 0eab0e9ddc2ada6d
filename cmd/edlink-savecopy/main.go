// edlink-savecopy keeps xz-compressed copies of the current document and
// can reopen the latest one.
package main

import (
	_ "embed"
	"time"

	"github.com/jmylchreest/edlink/pkg/plugin"
)

//go:embed plugin.yaml
var manifest []byte

func main() {
	plugin.Main(plugin.MustLoadInfo(manifest), func(s *plugin.Session) error {
		sc := &saveCopy{
			client: s.Client,
			ctx:    s.Context,
			logger: s.Logger(),
			now:    time.Now,
		}
		cmd := sc.command()
		cmd.SetArgs(s.Args[1:])
		return cmd.Execute()
	})
}
