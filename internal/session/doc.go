// Package session models an authenticated panel user and decides whether
// that user may operate the game server.
//
// A Session is created after a successful OAuth callback and carried in a
// signed cookie (see Codec). Policy holds the allow-list of identities and
// turns a possibly-nil session into one of three decisions: Anonymous,
// Unauthorized or Authorized. An empty allow-list authorizes every
// authenticated user.
package session
