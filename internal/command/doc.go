// Package command maps ytmdctrl commands to companion API requests and
// validates what comes back.
//
// BuildRequest is a pure mapping from a parsed Command to the wire request,
// rejecting arguments the server would refuse (ErrInvalidArgument). Interpret
// holds each command to its own expectations: volume and seek must report the
// resulting level or position, and reads must decode into the state or
// playlist model. Anything structurally wrong becomes a ytmd.ProtocolError.
package command
