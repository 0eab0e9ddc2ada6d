// edlink-wordcount reports line, word and character counts for the current
// document or its selection.
package main

import (
	_ "embed"

	"github.com/jmylchreest/edlink/pkg/plugin"
)

//go:embed plugin.yaml
var manifest []byte

func main() {
	plugin.Main(plugin.MustLoadInfo(manifest), func(s *plugin.Session) error {
		cmd := newRootCmd(s.Client, s.Context)
		cmd.SetArgs(s.Args[1:])
		return cmd.Execute()
	})
}
