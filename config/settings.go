// Package config holds the CLI settings and flag helpers.
package config

import (
	"fmt"
	"time"

	"github.com/wiretap-go/wiretap/size"
)

// MultiStringOption allows the same string flag to be passed several times,
// collecting every value.
type MultiStringOption struct {
	Params *[]string
}

func (h *MultiStringOption) String() string {
	if h.Params == nil {
		return ""
	}
	return fmt.Sprint(*h.Params)
}

// Set gets called multiple times for each flag with same name
func (h *MultiStringOption) Set(value string) error {
	if h.Params == nil {
		return nil
	}

	*h.Params = append(*h.Params, value)
	return nil
}

// AppSettings carries every command line option of the wiretap binary.
type AppSettings struct {
	ExitAfter time.Duration `json:"exit-after"`

	// ######################## capture #######################
	// Iface is the device to sniff; empty selects the default interface
	// (first up, non-loopback device with an address).
	Iface       string        `json:"iface"`
	Engine      string        `json:"engine"`
	BPFFilter   string        `json:"bpf-filter"`
	BufferSize  size.Size     `json:"buffer-size"`
	Promiscuous bool          `json:"promisc"`
	ReadTimeout time.Duration `json:"read-timeout"`

	// ######################## analysis ######################
	// Hosts restricts the pair report to traffic from/to these IPv4
	// addresses; empty reports on everything.
	Hosts []string `json:"host"`
	// Exec runs an external command (typically a scanner) for the duration
	// of the capture; the capture stops when the command exits.
	Exec string `json:"exec"`

	// ######################## output ########################
	OutputStdout     bool   `json:"output-stdout"`
	OutputKafkaHost  string `json:"output-kafka-host"`
	OutputKafkaTopic string `json:"output-kafka-topic"`
}
