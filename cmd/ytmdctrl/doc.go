// Package main hosts the ytmdctrl CLI entrypoint and command graph.
//
// Every playback command is a Cobra subcommand generated from the command
// table in internal/command; running the binary with no subcommand toggles
// play/pause. The shared command context resolves configuration once, applies
// the --server/--port overrides, builds the invocation logger, and opens the
// credential store before handing a (server, command) pair to the controller.
//
// Errors are printed once by main and mapped onto exit codes: 2 for a command
// the server rejected, 3 for authorization failures, 4 for connection
// failures, 5 for protocol violations, and 1 for everything else.
package main
