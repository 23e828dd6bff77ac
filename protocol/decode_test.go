package protocol

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSrcMAC = net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}
	testDstMAC = net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x02}
)

// tcpFrame serializes a full ethernet/IPv4/TCP frame.
func tcpFrame(t *testing.T, srcIP, dstIP string, srcPort, dstPort uint16, seq, ack uint32, payload []byte) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       testSrcMAC,
		DstMAC:       testDstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.ParseIP(srcIP).To4(),
		DstIP:    net.ParseIP(dstIP).To4(),
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		Seq:     seq,
		Ack:     ack,
		ACK:     ack != 0,
		Window:  512,
	}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(payload)))
	return buf.Bytes()
}

// arpFrame serializes an ethernet frame whose payload is ARP, not IPv4.
func arpFrame(t *testing.T) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       testSrcMAC,
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeARP,
	}
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   testSrcMAC,
		SourceProtAddress: []byte{192, 168, 0, 1},
		DstHwAddress:      make([]byte, 6),
		DstProtAddress:    []byte{192, 168, 0, 2},
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, arp))
	return buf.Bytes()
}

// udpFrame serializes an ethernet/IPv4/UDP frame.
func udpFrame(t *testing.T, srcIP, dstIP string) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       testSrcMAC,
		DstMAC:       testDstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.ParseIP(srcIP).To4(),
		DstIP:    net.ParseIP(dstIP).To4(),
	}
	udp := &layers.UDP{SrcPort: 53, DstPort: 4444}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, udp))
	return buf.Bytes()
}

func TestDecodeChainNeverGrows(t *testing.T) {
	raw := [][]byte{
		tcpFrame(t, "10.0.0.1", "10.0.0.2", 80, 9000, 100, 0, []byte("hello")),
		{0x01, 0x02, 0x03}, // too short for ethernet
		arpFrame(t),
		udpFrame(t, "10.0.0.1", "10.0.0.9"),
		tcpFrame(t, "10.0.0.2", "10.0.0.1", 9000, 80, 500, 105, nil),
	}

	frames := DecodeEthernet(raw)
	packets := frames.IPv4()
	segments := packets.TCP()

	assert.Equal(t, 4, len(frames), "only the truncated frame is dropped at the link layer")
	assert.Equal(t, 3, len(packets), "ARP vanishes silently at the IPv4 layer")
	assert.Equal(t, 2, len(segments), "the UDP datagram is too short to pass as TCP")
	assert.True(t, len(segments) <= len(packets))
	assert.True(t, len(packets) <= len(frames))
	assert.True(t, len(frames) <= len(raw))
}

func TestDecodePreservesOrder(t *testing.T) {
	raw := [][]byte{
		tcpFrame(t, "10.0.0.1", "10.0.0.2", 1111, 80, 1, 0, []byte("a")),
		arpFrame(t),
		tcpFrame(t, "10.0.0.1", "10.0.0.2", 2222, 80, 2, 0, []byte("b")),
		tcpFrame(t, "10.0.0.1", "10.0.0.2", 3333, 80, 3, 0, []byte("c")),
	}

	segments := DecodeEthernet(raw).IPv4().TCP()
	require.Equal(t, 3, len(segments))
	assert.Equal(t, uint16(1111), segments[0].SrcPort())
	assert.Equal(t, uint16(2222), segments[1].SrcPort())
	assert.Equal(t, uint16(3333), segments[2].SrcPort())
}

func TestDecodeEmptyInput(t *testing.T) {
	frames := DecodeEthernet(nil)
	assert.Equal(t, 0, len(frames))
	assert.Equal(t, 0, len(frames.IPv4()))
	assert.Equal(t, 0, len(frames.IPv4().TCP()))
}

func TestFilterHost(t *testing.T) {
	target := net.ParseIP("192.168.4.23")
	raw := [][]byte{
		tcpFrame(t, "192.168.4.23", "192.168.4.1", 139, 40000, 1, 0, []byte("x")),
		tcpFrame(t, "192.168.4.7", "192.168.4.8", 22, 50000, 1, 0, []byte("y")),
		tcpFrame(t, "192.168.4.1", "192.168.4.23", 40000, 139, 1, 2, []byte("z")),
	}
	packets := DecodeEthernet(raw).IPv4()

	only := packets.FilterHost(target)
	require.Equal(t, 2, len(only))
	for _, p := range only {
		assert.True(t, p.SrcIP().Equal(target) || p.DstIP().Equal(target))
	}

	// applying the filter again changes nothing
	again := only.FilterHost(target)
	require.Equal(t, len(only), len(again))
	for i := range again {
		assert.Equal(t, only[i].Raw(), again[i].Raw())
	}
}

func TestFilterHostCopies(t *testing.T) {
	target := net.ParseIP("10.0.0.1")
	packets := DecodeEthernet([][]byte{
		tcpFrame(t, "10.0.0.1", "10.0.0.2", 80, 9000, 1, 0, []byte("x")),
	}).IPv4()

	only := packets.FilterHost(target)
	require.Equal(t, 1, len(only))
	assert.NotSame(t, packets[0], only[0])
	only[0].Raw()[0] ^= 0xff
	assert.NotEqual(t, packets[0].Raw()[0], only[0].Raw()[0])
}

func TestFilterPayload(t *testing.T) {
	raw := [][]byte{
		tcpFrame(t, "10.0.0.1", "10.0.0.2", 80, 9000, 1, 0, []byte("data")),
		tcpFrame(t, "10.0.0.2", "10.0.0.1", 9000, 80, 1, 5, nil), // bare ACK
		tcpFrame(t, "10.0.0.1", "10.0.0.2", 80, 9000, 5, 0, []byte("more")),
	}
	segments := DecodeEthernet(raw).IPv4().TCP()

	withPayload := segments.FilterPayload()
	require.Equal(t, 2, len(withPayload))
	for _, s := range withPayload {
		assert.True(t, len(s.Payload()) > 0)
	}
	assert.Equal(t, len(withPayload), len(withPayload.FilterPayload()))
}
