// Package plugin contains the output sinks the CLI writes its pair report to.
package plugin

import (
	"github.com/wiretap-go/wiretap/protocol"
)

// SegmentInfo is the wire-friendly view of one TCP segment.
type SegmentInfo struct {
	SrcPort uint16 `json:"src-port"`
	DstPort uint16 `json:"dst-port"`
	Seq     uint32 `json:"seq"`
	Ack     uint32 `json:"ack"`
	Payload []byte `json:"payload"`
}

// PairReport is one matched challenge/response pair as written to outputs.
type PairReport struct {
	SessionID string      `json:"session-id"`
	Host      string      `json:"host,omitempty"`
	Challenge SegmentInfo `json:"challenge"`
	Response  SegmentInfo `json:"response"`
}

// NewPairReport flattens a matched pair for output.
func NewPairReport(sessionID, host string, pair protocol.ChallengeResponse) *PairReport {
	return &PairReport{
		SessionID: sessionID,
		Host:      host,
		Challenge: newSegmentInfo(pair.Challenge),
		Response:  newSegmentInfo(pair.Response),
	}
}

func newSegmentInfo(s *protocol.TCPSegment) SegmentInfo {
	return SegmentInfo{
		SrcPort: s.SrcPort(),
		DstPort: s.DstPort(),
		Seq:     s.Seq(),
		Ack:     s.Ack(),
		Payload: s.Payload(),
	}
}

// PairWriter is any sink that accepts pair reports.
type PairWriter interface {
	Write(report *PairReport) error
	Close() error
}
