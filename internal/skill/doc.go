// Package skill defines the uniform invocation contract shared by every PAI skill.
//
// A skill is a named Command in a compile-time Registry. Commands come in two
// closed variants:
//   - ModeInProcess: a Go Handler called with an Env and the raw argument tokens
//   - ModeExternal: a script run by an interpreter in a child process
//
// Handlers return a Result, which is either one complete string or a lazily
// produced sequence of chunks. Failures are *Error values carrying a Kind so
// callers can branch on structure instead of matching output text.
//
// Resolution is a pure lookup: Registry.Resolve never touches the filesystem,
// the network or the process table, so a rejected name cannot cause any I/O.
package skill
