// Package inbox holds the working set of emails and derives filtered,
// sorted views from it.
//
// Emails are stored unordered, keyed by id; the active filter (category
// equality plus free-text search over sender, subject and body) and sort
// criterion (newest, oldest, sender) are applied at view time. When no
// authenticated backend data is available the store degrades gracefully
// to a static fixture set instead of showing an empty inbox.
package inbox
