package protocol

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// EthernetFrame is a decoded link-layer frame backed by its own byte buffer.
type EthernetFrame struct {
	raw []byte
	eth layers.Ethernet
}

// DecodeEthernetFrame interprets data as an ethernet frame. The frame keeps a
// reference to data; use Clone for a fully independent copy.
func DecodeEthernetFrame(data []byte) (*EthernetFrame, error) {
	f := &EthernetFrame{raw: data}
	if err := f.eth.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, err
	}
	return f, nil
}

// Raw returns the frame bytes as captured.
func (f *EthernetFrame) Raw() []byte { return f.raw }

// Payload returns the bytes following the ethernet header.
func (f *EthernetFrame) Payload() []byte { return f.eth.Payload }

func (f *EthernetFrame) SrcMAC() net.HardwareAddr { return f.eth.SrcMAC }

func (f *EthernetFrame) DstMAC() net.HardwareAddr { return f.eth.DstMAC }

func (f *EthernetFrame) EthernetType() layers.EthernetType { return f.eth.EthernetType }

// Clone deep-copies the frame, detaching it from the buffer it was decoded from.
func (f *EthernetFrame) Clone() *EthernetFrame {
	c, _ := DecodeEthernetFrame(append([]byte(nil), f.raw...))
	return c
}

// EthernetFrames is an insertion-ordered frame collection, duplicates allowed.
type EthernetFrames []*EthernetFrame

// DecodeEthernet decodes each raw frame, dropping the ones that do not parse.
func DecodeEthernet(raw [][]byte) EthernetFrames {
	frames := make(EthernetFrames, 0, len(raw))
	for _, data := range raw {
		f, err := DecodeEthernetFrame(data)
		if err != nil {
			continue
		}
		frames = append(frames, f)
	}
	return frames
}

// IPv4 derives the next layer, dropping frames whose payload is not IPv4.
func (fs EthernetFrames) IPv4() IPv4Packets {
	packets := make(IPv4Packets, 0, len(fs))
	for _, f := range fs {
		p, err := DecodeIPv4Packet(append([]byte(nil), f.Payload()...))
		if err != nil {
			continue
		}
		packets = append(packets, p)
	}
	return packets
}
