//go:build linux
// +build linux

package capture

import (
	"fmt"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/afpacket"
	"golang.org/x/net/bpf"
)

type afpacketSource struct {
	tpacket *afpacket.TPacket
}

// newAfpacketSource opens a TPACKET_V3 ring on the device.
func newAfpacketSource(ifc Interface, opts Options) (packetSource, error) {
	snaplen := opts.Snaplen
	if snaplen == 0 {
		snaplen = 64 << 10
	}
	bufferSize := int(opts.BufferSize)
	if bufferSize == 0 {
		bufferSize = 2 << 20
	}
	timeout := opts.BufferTimeout
	if timeout == 0 {
		timeout = 2000 * time.Millisecond
	}

	frameSize, blockSize, numBlocks, err := afpacketComputeSize(bufferSize, snaplen, os.Getpagesize())
	if err != nil {
		return nil, err
	}

	tpacket, err := afpacket.NewTPacket(
		afpacket.OptInterface(ifc.Name),
		afpacket.OptFrameSize(frameSize),
		afpacket.OptBlockSize(blockSize),
		afpacket.OptNumBlocks(numBlocks),
		afpacket.OptPollTimeout(timeout),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	)
	if err != nil {
		return nil, fmt.Errorf("af_packet error: %q, interface: %q", err, ifc.Name)
	}

	// AF_PACKET has no tcpdump-style filter compiler of its own; narrow the
	// ring to IPv4 so mixed-protocol links do not flood the buffer.
	if err := tpacket.SetBPF(ipv4Filter()); err != nil {
		tpacket.Close()
		return nil, fmt.Errorf("BPF error: %q, interface: %q", err, ifc.Name)
	}
	return &afpacketSource{tpacket: tpacket}, nil
}

func (s *afpacketSource) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	return s.tpacket.ReadPacketData()
}

func (s *afpacketSource) Close() error {
	s.tpacket.Close()
	return nil
}

// afpacketComputeSize fits a ring of the target size to the page and frame
// granularity the kernel requires.
func afpacketComputeSize(targetSize int, snaplen int, pageSize int) (frameSize, blockSize, numBlocks int, err error) {
	if snaplen < pageSize {
		frameSize = pageSize / (pageSize / snaplen)
	} else {
		frameSize = (snaplen/pageSize + 1) * pageSize
	}
	blockSize = frameSize * 128
	numBlocks = targetSize / blockSize
	if numBlocks == 0 {
		return 0, 0, 0, fmt.Errorf("buffer size %d too small for frame size %d", targetSize, frameSize)
	}
	return frameSize, blockSize, numBlocks, nil
}

// ipv4Filter assembles "accept ethertype IPv4, drop the rest".
func ipv4Filter() []bpf.RawInstruction {
	raw, _ := bpf.Assemble([]bpf.Instruction{
		bpf.LoadAbsolute{Off: 12, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: 0x0800, SkipFalse: 1},
		bpf.RetConstant{Val: 65535},
		bpf.RetConstant{Val: 0},
	})
	return raw
}
