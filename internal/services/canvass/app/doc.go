// Package app assembles the admission client from its parts: the local
// store, the campaign cache, the credential gate, the HTTP client, the
// progress simulator and the admission protocol.
package app
