// Package api implements the HTTP client for the mailpilot backend.
//
// It is the single point of outbound communication: every request carries
// the stored bearer credential, waits at most DefaultTimeout, and comes
// back either decoded into the caller's type or as a classified *Error.
// There is no retry policy; callers surface failures to the user as-is.
//
// Credential rejection (HTTP 401) is special: besides returning a
// KindUnauthorized error, the client notifies any OnUnauthorized
// subscribers. The session store uses this to tear down the local session
// without the transport layer ever knowing about session state or
// navigation.
//
// Example usage:
//
//	client, err := api.NewClient("https://api.example.com/api/v1", session)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	var emails []inbox.Email
//	err = client.Get(ctx, "loadEmails", "/emails/my-inbox", nil, &emails)
package api
