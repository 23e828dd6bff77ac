package capture

import (
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/wiretap-go/wiretap/size"
)

// EngineType selects the mechanism used to pull frames off the wire.
type EngineType uint8

// Available engines for intercepting traffic
const (
	EnginePcap EngineType = 1 << iota
	EngineAFPacket
)

// Set is here so that EngineType can implement flag.Var
func (eng *EngineType) Set(v string) error {
	switch v {
	case "", "libpcap":
		*eng = EnginePcap
	case "af_packet":
		*eng = EngineAFPacket
	default:
		return fmt.Errorf("invalid engine %s", v)
	}
	return nil
}

func (eng *EngineType) String() (e string) {
	switch *eng {
	case EnginePcap:
		e = "libpcap"
	case EngineAFPacket:
		e = "af_packet"
	default:
		e = ""
	}
	return e
}

// Options holds the knobs that take effect when a handle is opened.
type Options struct {
	Engine        EngineType
	BPFFilter     string
	BufferSize    size.Size
	Promiscuous   bool
	BufferTimeout time.Duration
	Snaplen       int
}

// DefaultOptions returns options suitable for sniffing a regular ethernet device.
func DefaultOptions() Options {
	return Options{
		Engine:        EnginePcap,
		BufferTimeout: 2000 * time.Millisecond,
		Snaplen:       64<<10 + 200,
	}
}

// Interface describes one network interface as seen by the capture layer.
type Interface struct {
	Name      string
	Up        bool
	Loopback  bool
	Addresses []net.IP
}

func (ifc Interface) String() string {
	return fmt.Sprintf("%s up=%v loopback=%v addrs=%v", ifc.Name, ifc.Up, ifc.Loopback, ifc.Addresses)
}

// Interfaces enumerates capture-capable devices. Flags come from the kernel
// view of the device so that libpcap and AF_PACKET report the same set.
func Interfaces() ([]Interface, error) {
	pifis, err := pcap.FindAllDevs()
	if err != nil {
		return nil, err
	}
	nifis, _ := net.Interfaces()

	out := make([]Interface, 0, len(pifis))
	for _, pi := range pifis {
		ifc := Interface{Name: pi.Name}
		for _, addr := range pi.Addresses {
			ifc.Addresses = append(ifc.Addresses, addr.IP)
		}

		for _, ni := range nifis {
			if ni.Name == pi.Name {
				ifc.Up = ni.Flags&net.FlagUp != 0
				ifc.Loopback = ni.Flags&net.FlagLoopback != 0
				break
			}
		}
		out = append(out, ifc)
	}
	return out, nil
}

func findInterface(name string) (Interface, error) {
	ifis, err := Interfaces()
	if err != nil {
		return Interface{}, err
	}
	return pickByName(ifis, name)
}

func defaultInterface() (Interface, error) {
	ifis, err := Interfaces()
	if err != nil {
		return Interface{}, err
	}
	return pickDefault(ifis)
}

func pickByName(ifis []Interface, name string) (Interface, error) {
	for _, ifc := range ifis {
		if ifc.Name == name {
			return ifc, nil
		}
	}
	return Interface{}, fmt.Errorf("%w: %q", ErrInterfaceNotFound, name)
}

// pickDefault picks the first device that is up, not loopback and has at
// least one assigned address.
func pickDefault(ifis []Interface) (Interface, error) {
	for _, ifc := range ifis {
		if ifc.Up && !ifc.Loopback && len(ifc.Addresses) > 0 {
			return ifc, nil
		}
	}
	return Interface{}, ErrNoDefaultInterface
}

// packetSource is the receive half of an open capture channel.
type packetSource interface {
	gopacket.PacketDataSource
}

// openSource opens a receive handle on ifc according to opts.
func openSource(ifc Interface, opts Options) (packetSource, error) {
	switch opts.Engine {
	case EngineAFPacket:
		return newAfpacketSource(ifc, opts)
	default:
		return newPcapSource(ifc, opts)
	}
}

// newPcapSource activates a libpcap handle on the device.
func newPcapSource(ifc Interface, opts Options) (packetSource, error) {
	inactive, err := pcap.NewInactiveHandle(ifc.Name)
	if err != nil {
		return nil, fmt.Errorf("inactive handle error: %q, interface: %q", err, ifc.Name)
	}
	defer inactive.CleanUp()

	if opts.Promiscuous {
		if err = inactive.SetPromisc(opts.Promiscuous); err != nil {
			return nil, fmt.Errorf("promiscuous mode error: %q, interface: %q", err, ifc.Name)
		}
	}

	snap := opts.Snaplen
	if snap == 0 {
		snap = 64<<10 + 200
	}
	if err = inactive.SetSnapLen(snap); err != nil {
		return nil, fmt.Errorf("snapshot length error: %q, interface: %q", err, ifc.Name)
	}
	if opts.BufferSize > 0 {
		if err = inactive.SetBufferSize(int(opts.BufferSize)); err != nil {
			return nil, fmt.Errorf("handle buffer size error: %q, interface: %q", err, ifc.Name)
		}
	}
	timeout := opts.BufferTimeout
	if timeout == 0 {
		timeout = 2000 * time.Millisecond
	}
	if err = inactive.SetTimeout(timeout); err != nil {
		return nil, fmt.Errorf("handle buffer timeout error: %q, interface: %q", err, ifc.Name)
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("PCAP activate device error: %q, interface: %q", err, ifc.Name)
	}
	if opts.BPFFilter != "" {
		if err = handle.SetBPFFilter(opts.BPFFilter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("BPF filter error: %q%s, interface: %q", err, opts.BPFFilter, ifc.Name)
		}
	}
	return handle, nil
}

// retriable reports whether a read error is transient. Anything else is fatal
// to the reading goroutine.
func retriable(err error) bool {
	if enext, ok := err.(pcap.NextError); ok && enext == pcap.NextErrorTimeoutExpired {
		return true
	}
	if eno, ok := err.(syscall.Errno); ok && eno.Temporary() {
		return true
	}
	if enet, ok := err.(*net.OpError); ok && (enet.Temporary() || enet.Timeout()) {
		return true
	}
	return false
}

func closeSource(src packetSource) {
	switch h := src.(type) {
	case *pcap.Handle:
		h.Close()
	case io.Closer:
		h.Close()
	}
}
