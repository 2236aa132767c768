// Package handshake negotiates a companion authorization token with a YTMD
// server.
//
// The engine walks NoToken → AwaitingApproval → Authorized, or ends in Denied
// or TimedOut. The server answers the code request immediately and then holds
// the token request open until the operator decides, so the approval wait is a
// single blocking call bounded by the engine's approval timeout. A successful
// token is persisted before Run returns.
//
// Denied and TimedOut are terminal for the invocation; callers do not retry.
// Transport failures surface unchanged so they stay distinguishable from a
// refusal.
package handshake
