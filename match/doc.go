// Package match finds provider pattern matches in document text and builds
// the lens request URL for each match.
//
// Every capture group of a match, including group 0 for the whole match, is
// appended to the provider's URL template as an m[] query parameter. Groups
// are escaped the same way as JavaScript's encodeURIComponent, so lens
// endpoints written for the original editor extension see identical
// requests. A group that did not participate in the match is sent as an
// empty value.
//
// A broken provider definition never stops matching. The error is logged
// with the provider ID and the remaining providers are still matched.
package match
