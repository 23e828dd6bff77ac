package protocol

import (
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ackFlag(tcp *layers.TCP) { tcp.ACK = true }

func TestSinglePair(t *testing.T) {
	challenge := tcpSegment(t, 80, 9000, 100, 0, []byte("0123456789"), nil)
	response := tcpSegment(t, 9000, 80, 500, 110, nil, ackFlag)

	matched, unmatched := FindChallengeResponsePairs(TCPSegments{challenge, response})

	require.Equal(t, 1, len(matched))
	assert.Equal(t, 0, len(unmatched))
	assert.Equal(t, uint16(80), matched[0].Challenge.SrcPort())
	assert.Equal(t, uint16(9000), matched[0].Response.SrcPort())
}

func TestNoPairs(t *testing.T) {
	a := tcpSegment(t, 80, 9000, 100, 0, []byte("aa"), nil)
	b := tcpSegment(t, 22, 4000, 200, 0, []byte("bb"), nil)
	c := tcpSegment(t, 443, 5000, 300, 0, []byte("cc"), nil)

	matched, unmatched := FindChallengeResponsePairs(TCPSegments{a, b, c})

	assert.Equal(t, 0, len(matched))
	require.Equal(t, 3, len(unmatched))
	assert.Equal(t, uint16(80), unmatched[0].SrcPort())
	assert.Equal(t, uint16(22), unmatched[1].SrcPort())
	assert.Equal(t, uint16(443), unmatched[2].SrcPort())
}

func TestPartitionLaw(t *testing.T) {
	segments := TCPSegments{
		tcpSegment(t, 80, 9000, 100, 0, []byte("0123456789"), nil), // answered by [3]
		tcpSegment(t, 22, 4000, 50, 0, []byte("x"), nil),           // unmatched
		tcpSegment(t, 443, 5000, 10, 0, []byte("abc"), nil),        // answered by [4]
		tcpSegment(t, 9000, 80, 500, 110, nil, ackFlag),
		tcpSegment(t, 5000, 443, 900, 13, nil, ackFlag),
		tcpSegment(t, 21, 6000, 77, 0, []byte("zz"), nil), // unmatched
	}

	matched, unmatched := FindChallengeResponsePairs(segments)

	assert.Equal(t, len(segments), len(matched)*2+len(unmatched))
	require.Equal(t, 2, len(matched))
	require.Equal(t, 2, len(unmatched))

	// discovery order for pairs, input order for leftovers
	assert.Equal(t, uint16(80), matched[0].Challenge.SrcPort())
	assert.Equal(t, uint16(443), matched[1].Challenge.SrcPort())
	assert.Equal(t, uint16(22), unmatched[0].SrcPort())
	assert.Equal(t, uint16(21), unmatched[1].SrcPort())
}

func TestFirstEligibleResponseWins(t *testing.T) {
	challenge := tcpSegment(t, 80, 9000, 100, 0, []byte("0123456789"), nil)
	first := tcpSegment(t, 9000, 80, 500, 110, nil, ackFlag)
	second := tcpSegment(t, 9000, 80, 800, 110, nil, ackFlag)

	matched, unmatched := FindChallengeResponsePairs(TCPSegments{challenge, first, second})

	require.Equal(t, 1, len(matched))
	require.Equal(t, 1, len(unmatched))
	assert.Equal(t, uint32(500), matched[0].Response.Seq())
	assert.Equal(t, uint32(800), unmatched[0].Seq())
}

func TestResponseBeforeChallenge(t *testing.T) {
	// the answering segment appears earlier in the capture than its challenge:
	// the scan covers every other index, not just the ones after i
	response := tcpSegment(t, 9000, 80, 500, 110, nil, ackFlag)
	challenge := tcpSegment(t, 80, 9000, 100, 0, []byte("0123456789"), nil)

	matched, unmatched := FindChallengeResponsePairs(TCPSegments{response, challenge})

	require.Equal(t, 1, len(matched))
	assert.Equal(t, 0, len(unmatched))
	assert.Equal(t, uint16(80), matched[0].Challenge.SrcPort())
}

func TestEmptyInput(t *testing.T) {
	matched, unmatched := FindChallengeResponsePairs(nil)
	assert.Equal(t, 0, len(matched))
	assert.Equal(t, 0, len(unmatched))
}

func TestInputLeftIntact(t *testing.T) {
	challenge := tcpSegment(t, 80, 9000, 100, 0, []byte("0123456789"), nil)
	response := tcpSegment(t, 9000, 80, 500, 110, nil, ackFlag)
	input := TCPSegments{challenge, response}

	matched, _ := FindChallengeResponsePairs(input)

	require.Equal(t, 1, len(matched))
	// the pool is built from clones; the caller's segments are untouched
	assert.Same(t, challenge, input[0])
	assert.NotSame(t, challenge, matched[0].Challenge)
	assert.Equal(t, challenge.Raw(), matched[0].Challenge.Raw())
}
