// Package control runs one ytmdctrl invocation end to end.
//
// The Controller looks up the stored credential for the server, authorizes
// when there is none, opens a session, sends the command, and interprets the
// reply. A token the server rejects is cleared and replaced through exactly
// one more authorization; a second rejection is final. Every session opened is
// closed before Execute returns.
package control
