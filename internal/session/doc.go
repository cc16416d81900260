// Package session holds the current user identity and bearer credential.
//
// The store moves between three states: anonymous, authenticating and
// authenticated. Its one hard invariant is that the credential and the
// user profile are set and cleared together, never one without the other.
//
// Sessions survive process restarts through a JSON credentials file
// (0600) under the user config directory; CheckAuth revalidates the
// restored credential against the backend at startup. A credential the
// backend rejects clears the session, but a backend that merely cannot be
// reached does not: "could not verify" is not "rejected".
//
// Logout is local-first: the session is cleared synchronously and the
// backend is notified best-effort in the background, so signing out never
// blocks on the network.
package session
