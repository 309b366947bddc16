// Package services contains the application services of the journal client.
//
// JournalService composes the key vault, the cipher engine and the record
// store into the entry-level API. AuthService and AIService talk to the
// optional backend through the network client; they are the only paths by
// which decrypted text leaves the device, and only on explicit user calls.
package services
