// Package accounts manages connected email-provider accounts: listing,
// connecting Gmail and Outlook with opaque credentials, disconnecting,
// and per-account sync with independent in-flight tracking.
package accounts
