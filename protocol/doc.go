/*
Package protocol interprets captured raw frames through a fixed stack:
link layer -> IPv4 -> TCP. Each decode step is lossy by design: a record whose
bytes do not parse as the requested layer is silently dropped, so an ARP frame
simply vanishes from the IPv4 collection with no error surfaced. Order among
survivors is always preserved.

Every decoded record owns its bytes outright, so collections stay valid after
the capturing goroutine is gone. Clone produces a fully independent copy.

The package also correlates TCP traffic: FindChallengeResponsePairs partitions
a segment collection into challenge/response pairs and leftover unmatched
segments.
*/
package protocol
