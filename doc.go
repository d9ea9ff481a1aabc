// Package mediafold provides the core of a media gallery gateway: a
// two-tier storage gateway over a WebDAV-style remote store, a signed
// time-limited capability scheme for anonymous reads, and the client-side
// reconciliation engine that keeps a rendered gallery consistent with the
// gateway under concurrent mutation.
//
// # Key Components
//
//   - Signer / Verifier: HMAC-backed read capabilities carried as query
//     parameters, with distinct Valid, Expired, and Invalid outcomes
//   - AddressTranslator: split-horizon URL rewriting for clients that
//     cannot reach the store's internal address
//   - vault.Vault: the storage gateway coordinating the primary media
//     store and the derived thumbnail cache
//   - gallery.Reconciler / gallery.Coordinator: incremental view
//     reconciliation and batched file actions
//
// # Stores
//
// The primary store is authoritative for original media. The derived
// store holds regenerable thumbnails keyed off primary assets; mutations
// against it are best effort and never fail a primary operation.
//
// See the http package for the REST API and capability-protected read
// proxy, the webdav package for the remote store client, and the
// database package for the file-entry registry backends.
package mediafold
