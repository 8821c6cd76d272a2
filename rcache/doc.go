// Package rcache provides the lens resolution cache.
//
// Resolutions are keyed by provider ID and request URL, so every match that
// produces the same request shares one resolution and one network fetch.
//
// ## Entry States
//
// A lookup returns a snapshot of the entry in one of three states:
//
//   - Placeholder: the key is known but resolution has not been requested.
//     Nothing is stored and no fetch is started.
//   - Pending: a fetch is in flight. The entry carries a loading payload.
//   - Ready: the fetch completed, successfully or not, and the entry carries
//     the resulting payload.
//
// ## In-flight De-duplication
//
// When a lookup asks for immediate resolution and no live entry exists, a
// Pending entry is stored before the fetch goroutine is started, under the
// same lock as the lookup. Any later lookup for the key sees the Pending
// entry and does not start another fetch.
//
// ## Expiry
//
// Ready entries expire after the configured time-to-live. Failed fetches use
// a separate time-to-live so that errors can be retried sooner. A zero
// time-to-live means the entry never expires. An expired entry is treated as
// absent and is replaced by the next immediate lookup.
//
// ## Clearing
//
// Clear replaces the entry map. A fetch that is still running completes into
// its orphaned entry, which no lookup can reach any more, so the result is
// silently dropped.
package rcache
