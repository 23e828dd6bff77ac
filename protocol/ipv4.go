package protocol

import (
	"errors"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var errNotIPv4 = errors.New("not an IPv4 header")

// IPv4Packet is a decoded IPv4 packet backed by its own byte buffer.
type IPv4Packet struct {
	raw []byte
	ip4 layers.IPv4
}

// DecodeIPv4Packet interprets data as an IPv4 packet. The version field must
// actually read 4: a length-plausible non-IP payload does not pass.
func DecodeIPv4Packet(data []byte) (*IPv4Packet, error) {
	p := &IPv4Packet{raw: data}
	if err := p.ip4.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, err
	}
	if p.ip4.Version != 4 {
		return nil, errNotIPv4
	}
	return p, nil
}

// Raw returns the packet bytes, header included.
func (p *IPv4Packet) Raw() []byte { return p.raw }

// Payload returns the transport-layer bytes.
func (p *IPv4Packet) Payload() []byte { return p.ip4.Payload }

func (p *IPv4Packet) SrcIP() net.IP { return p.ip4.SrcIP }

func (p *IPv4Packet) DstIP() net.IP { return p.ip4.DstIP }

func (p *IPv4Packet) Protocol() layers.IPProtocol { return p.ip4.Protocol }

// Clone deep-copies the packet, detaching it from the buffer it was decoded from.
func (p *IPv4Packet) Clone() *IPv4Packet {
	c, _ := DecodeIPv4Packet(append([]byte(nil), p.raw...))
	return c
}

// IPv4Packets is an insertion-ordered packet collection, duplicates allowed.
type IPv4Packets []*IPv4Packet

// DecodeIPv4 decodes each buffer as an IPv4 packet, dropping the ones that do
// not parse.
func DecodeIPv4(raw [][]byte) IPv4Packets {
	packets := make(IPv4Packets, 0, len(raw))
	for _, data := range raw {
		p, err := DecodeIPv4Packet(data)
		if err != nil {
			continue
		}
		packets = append(packets, p)
	}
	return packets
}

// TCP derives the next layer, dropping packets whose payload is not TCP.
func (ps IPv4Packets) TCP() TCPSegments {
	segments := make(TCPSegments, 0, len(ps))
	for _, p := range ps {
		s, err := DecodeTCPSegment(append([]byte(nil), p.Payload()...))
		if err != nil {
			continue
		}
		segments = append(segments, s)
	}
	return segments
}

// FilterHost keeps only packets whose source or destination address equals
// host. The result holds independent copies and applying the filter again
// with the same host returns an equal collection.
func (ps IPv4Packets) FilterHost(host net.IP) IPv4Packets {
	out := make(IPv4Packets, 0, len(ps))
	for _, p := range ps {
		if p.SrcIP().Equal(host) || p.DstIP().Equal(host) {
			out = append(out, p.Clone())
		}
	}
	return out
}
