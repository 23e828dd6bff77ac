package protocol

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// TCPSegment is a decoded TCP segment backed by its own byte buffer.
type TCPSegment struct {
	raw []byte
	tcp layers.TCP
}

// DecodeTCPSegment interprets data as a TCP segment.
func DecodeTCPSegment(data []byte) (*TCPSegment, error) {
	s := &TCPSegment{raw: data}
	if err := s.tcp.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, err
	}
	return s, nil
}

// Raw returns the segment bytes, header included.
func (s *TCPSegment) Raw() []byte { return s.raw }

// Payload returns the application bytes carried by the segment.
func (s *TCPSegment) Payload() []byte { return s.tcp.Payload }

func (s *TCPSegment) SrcPort() uint16 { return uint16(s.tcp.SrcPort) }

func (s *TCPSegment) DstPort() uint16 { return uint16(s.tcp.DstPort) }

func (s *TCPSegment) Seq() uint32 { return s.tcp.Seq }

func (s *TCPSegment) Ack() uint32 { return s.tcp.Ack }

// HasPayload reports whether the segment carries application bytes.
func (s *TCPSegment) HasPayload() bool { return len(s.tcp.Payload) > 0 }

// IsSYN reports whether the flags are exactly SYN.
func (s *TCPSegment) IsSYN() bool {
	return s.tcp.SYN && !s.tcp.FIN && !s.tcp.RST && !s.tcp.PSH && !s.tcp.ACK &&
		!s.tcp.URG && !s.tcp.ECE && !s.tcp.CWR && !s.tcp.NS
}

// IsRSTACK reports whether the flags are exactly RST|ACK.
func (s *TCPSegment) IsRSTACK() bool {
	return s.tcp.RST && s.tcp.ACK && !s.tcp.FIN && !s.tcp.SYN && !s.tcp.PSH &&
		!s.tcp.URG && !s.tcp.ECE && !s.tcp.CWR && !s.tcp.NS
}

// IsAnsweredBy reports whether other acknowledges exactly the end of this
// segment's payload on the reverse port flow. The sequence addition wraps
// around the 32-bit space, so pairs straddling the wrap boundary still match.
func (s *TCPSegment) IsAnsweredBy(other *TCPSegment) bool {
	return s.SrcPort() == other.DstPort() &&
		s.DstPort() == other.SrcPort() &&
		s.Seq()+uint32(len(s.Payload())) == other.Ack()
}

// Clone deep-copies the segment, detaching it from the buffer it was decoded from.
func (s *TCPSegment) Clone() *TCPSegment {
	c, _ := DecodeTCPSegment(append([]byte(nil), s.raw...))
	return c
}

func (s *TCPSegment) String() string {
	return fmt.Sprintf("tcp %d->%d seq=%d ack=%d len=%d",
		s.SrcPort(), s.DstPort(), s.Seq(), s.Ack(), len(s.Payload()))
}

// TCPSegments is an insertion-ordered segment collection, duplicates allowed.
type TCPSegments []*TCPSegment

// DecodeTCP decodes each buffer as a TCP segment, dropping the ones that do
// not parse.
func DecodeTCP(raw [][]byte) TCPSegments {
	segments := make(TCPSegments, 0, len(raw))
	for _, data := range raw {
		s, err := DecodeTCPSegment(data)
		if err != nil {
			continue
		}
		segments = append(segments, s)
	}
	return segments
}

// FilterPayload keeps only segments carrying application bytes, dropping pure
// control segments such as a bare SYN or ACK. The result holds independent
// copies.
func (ss TCPSegments) FilterPayload() TCPSegments {
	out := make(TCPSegments, 0, len(ss))
	for _, s := range ss {
		if s.HasPayload() {
			out = append(out, s.Clone())
		}
	}
	return out
}
