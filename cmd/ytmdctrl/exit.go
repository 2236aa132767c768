package main

import "ytmdctrl/internal/ytmd"

const (
	exitOK            = 0
	exitUsage         = 1
	exitCommand       = 2
	exitAuthorization = 3
	exitConnection    = 4
	exitProtocol      = 5
)

// exitCode maps an invocation error onto the process exit status. Usage
// mistakes, cancellation, and local failures share status 1.
func exitCode(err error) int {
	switch ytmd.KindOf(err) {
	case ytmd.KindNone:
		return exitOK
	case ytmd.KindCommand:
		return exitCommand
	case ytmd.KindAuthorization:
		return exitAuthorization
	case ytmd.KindConnection:
		return exitConnection
	case ytmd.KindProtocol:
		return exitProtocol
	default:
		return exitUsage
	}
}
