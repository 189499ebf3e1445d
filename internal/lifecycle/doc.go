// Package lifecycle owns the game server process.
//
// A Controller launches the server as a child process in its own process
// group and exposes Start, Stop, Restart and Status. Mutating operations are
// serialized by a single operation lock, and liveness is always re-derived
// from the operating system under that lock, so a server that crashed or was
// killed externally is noticed before the next decision is made.
//
// # Stop protocol
//
//  1. Ask the server to stop through the console ("stop"), ignoring the reply.
//  2. Wait up to GracefulTimeout for the process to exit.
//  3. Send SIGTERM and wait up to ForcefulTimeout.
//  4. SIGKILL the whole process group.
//
// Once started, a stop always runs to completion; it is not tied to the
// caller's context.
package lifecycle
