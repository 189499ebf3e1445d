// Package rcon sends console commands to the game server over the Source
// RCON protocol spoken by Minecraft.
//
// Every call opens a fresh connection, authenticates with the shared password,
// runs one command and closes the connection. There is no pooling and no
// retry. Failures never surface as Go errors to the caller; instead Execute
// returns a Result with OK=false and a human-readable system message, which
// the panel shows in place of the server's reply.
package rcon
