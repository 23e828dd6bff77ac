package plugin

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Shopify/sarama/mocks"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiretap-go/wiretap/protocol"
)

func testPair(t *testing.T) protocol.ChallengeResponse {
	t.Helper()
	build := func(src, dst uint16, seq, ack uint32, payload []byte) *protocol.TCPSegment {
		tcp := &layers.TCP{
			SrcPort: layers.TCPPort(src),
			DstPort: layers.TCPPort(dst),
			Seq:     seq,
			Ack:     ack,
			ACK:     ack != 0,
			Window:  512,
		}
		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true}
		require.NoError(t, gopacket.SerializeLayers(buf, opts, tcp, gopacket.Payload(payload)))
		seg, err := protocol.DecodeTCPSegment(buf.Bytes())
		require.NoError(t, err)
		return seg
	}
	return protocol.ChallengeResponse{
		Challenge: build(80, 9000, 100, 0, []byte("ping")),
		Response:  build(9000, 80, 500, 104, nil),
	}
}

func TestStdOutputWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	out := &StdOutput{w: &buf}

	report := NewPairReport("session-1", "192.168.4.23", testPair(t))
	require.NoError(t, out.Write(report))
	require.NoError(t, out.Close())

	var decoded PairReport
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded))
	assert.Equal(t, "session-1", decoded.SessionID)
	assert.Equal(t, uint16(80), decoded.Challenge.SrcPort)
	assert.Equal(t, uint32(104), decoded.Response.Ack)
	assert.Equal(t, []byte("ping"), decoded.Challenge.Payload)
}

func TestKafkaOutput(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndSucceed()

	out := newKafkaOutput(sp, "wiretap-pairs")
	require.NoError(t, out.Write(NewPairReport("session-2", "", testPair(t))))
	require.NoError(t, out.Close())
}
