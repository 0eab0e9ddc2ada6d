// Package plugin is the client library linked into editor plugins.
//
// An editor launches a plugin as
//
//	<plugin> -go <control-fd> <command-fd> <data-fd> [--query]
//
// and talks to it over the three inherited descriptors. Plugins normally
// call Main, which parses the launch arguments, performs the handshake and
// hands a Session to the plugin's own code.
package plugin

const (
	// LaunchMarker is the argument that follows the program name when the
	// editor starts a plugin.
	LaunchMarker = "-go"

	// QueryFlag asks the plugin to advertise its menu entry and exit.
	QueryFlag = "--query"

	// UsageMessage is printed to stdout when the plugin is run directly.
	UsageMessage = "Must be run as a plugin."

	// launchArgs is the number of leading arguments consumed by a launch:
	// the program name, the marker and three descriptors.
	launchArgs = 5
)
