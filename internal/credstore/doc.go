// Package credstore persists one YTMD authorization token per server identity.
//
// The store is a single JSON file (0600) read in full by Open and rewritten in
// full by every Put or Clear. Mutations hold an advisory lock on a sibling
// ".lock" file and re-read the file first, so concurrent invocations do not
// drop each other's entries. Files written by older releases, which mapped a
// bare host to a token string, are still readable and are treated as port 9863.
// Hand-edited files may carry comments or trailing commas.
package credstore
