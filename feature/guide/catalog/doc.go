// Package catalog is the HTTP client of the remote television catalog API.
//
// The API is bearer-credentialed JSON. The client covers the calls the guide pipeline needs:
//
//   - Status: credential and service availability check before any fetch.
//   - Lineup: the services (stations) of the account.
//   - Manifest: element key to content hash mapping for a scope.
//   - Programs: batch payload fetch of up to MaxBatchSize elements.
//   - Artwork: batch artwork candidate fetch of up to MaxBatchSize elements.
//   - Image: conditional image download using If-Modified-Since.
//
// # Errors
//
// Failures are marked with the guide error taxonomy. 401/403 responses and account codes
// (expired, locked, unknown user, ...) are models.ErrAuth; network failures, 5xx responses
// and undecodable bodies are models.ErrTransport. Per-element failures inside a batch are
// returned as ElementError values rather than errors.
//
// # Credentials
//
// A TokenSource supplies the credential. StaticToken wraps a pre-issued token;
// PasswordTokenSource logs in against POST /token, refreshes a minute before expiry and
// never logs in more than once per minute. When a call is rejected the client invalidates
// the credential and retries once.
package catalog
