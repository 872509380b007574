// Package dispatch resolves a command, emits telemetry and invokes the skill,
// in-process or as a child process, relaying its output as it is produced.
//
// External skills:
//   - argv is [interpreter, entrypoint, args...], run in the skill's workdir
//   - the parent environment plus the API credential is passed to the child
//   - stdout is relayed line by line; stderr is captured (capped at 64KB)
//     and surfaced only after the child exits
//   - a non-zero exit becomes a subprocess error carrying the exit code
//
// Termination:
//   - context cancellation or the configured timeout sends SIGTERM
//   - after a 5 second grace period SIGKILL is sent if the child is still running
//
// There are no retries.
package dispatch
