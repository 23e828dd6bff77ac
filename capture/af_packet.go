//go:build !linux
// +build !linux

package capture

import "fmt"

func newAfpacketSource(ifc Interface, opts Options) (packetSource, error) {
	return nil, fmt.Errorf("af_packet is only supported on linux")
}
