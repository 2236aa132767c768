// Package logging assembles the zap loggers used across ytmdctrl.
//
// It maps the configured level and format onto a console or JSON encoder,
// routes diagnostics to stderr, and tags each invocation with a UUID so lines
// from one run can be grouped. Components take a *zap.Logger in their
// constructors; tests pass NewNop or an observer core.
package logging
