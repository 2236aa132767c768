// Package preflight provides readiness checks behind `ytmdctrl doctor`.
//
// The checks cover the credential file on disk, reachability and API version
// of the companion server, and whether the server still accepts the stored
// token. Each check reports a Result instead of failing, so the CLI can show
// every problem in one run.
package preflight
