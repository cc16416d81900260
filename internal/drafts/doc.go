// Package drafts holds email drafts with a local-first lifecycle:
// mutations land in memory immediately and are mirrored to the backend
// only while a session is active.
package drafts
