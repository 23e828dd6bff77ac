package capture

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	slog "github.com/vearne/simplelog"
	"github.com/wiretap-go/wiretap/protocol"
)

// sessionState is shared by the session handle and its reader goroutine. The
// goroutine keeps its own reference and drops it once it observes the stop
// flag or hits a fatal read error.
type sessionState struct {
	id   uuid.UUID
	ifc  Interface
	opts Options

	buf     *frameBuffer
	started int32
	stopped int32

	mu      sync.Mutex
	failure error

	// open is swappable so tests can feed the loop a synthetic source.
	open func() (packetSource, error)
}

func (st *sessionState) stopRequested() bool {
	return atomic.LoadInt32(&st.stopped) != 0
}

func (st *sessionState) setFailure(err error) {
	st.mu.Lock()
	if st.failure == nil {
		st.failure = err
	}
	st.mu.Unlock()
}

func (st *sessionState) getFailure() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.failure
}

// readLoop pulls frames until the stop flag is observed. With a nil handler
// frames are buffered; otherwise each frame is handed to the handler on this
// goroutine. A non-retriable read error ends the capture and is recorded on
// the session.
func (st *sessionState) readLoop(src packetSource, handler func([]byte)) {
	defer closeSource(src)
	for !st.stopRequested() {
		data, _, err := src.ReadPacketData()
		if err != nil {
			if retriable(err) {
				continue
			}
			slog.Error("[SESSION %s] read error: %v", st.id, err)
			st.setFailure(fmt.Errorf("%w: %v", ErrReadFailure, err))
			return
		}
		if handler != nil {
			handler(append([]byte(nil), data...))
			continue
		}
		st.buf.Append(data)
	}
	slog.Debug("[SESSION %s] reader exited after stop", st.id)
}

// Session is a capture bound to an interface but not yet started.
type Session struct {
	st *sessionState
}

// Bind looks the named interface up and binds a new session to it.
func Bind(name string, opts Options) (*Session, error) {
	ifc, err := findInterface(name)
	if err != nil {
		return nil, err
	}
	return bind(ifc, opts), nil
}

// BindDefault binds to the first interface that is up, not loopback and has
// at least one assigned address.
func BindDefault(opts Options) (*Session, error) {
	ifc, err := defaultInterface()
	if err != nil {
		return nil, err
	}
	return bind(ifc, opts), nil
}

func bind(ifc Interface, opts Options) *Session {
	st := &sessionState{
		id:   uuid.New(),
		ifc:  ifc,
		opts: opts,
		buf:  newFrameBuffer(),
	}
	st.open = func() (packetSource, error) { return openSource(st.ifc, st.opts) }
	slog.Info("[SESSION %s] bound to %v", st.id, ifc)
	return &Session{st: st}
}

// ID returns the session identity used in logs and reports.
func (s *Session) ID() string { return s.st.id.String() }

// Interface returns the bound interface.
func (s *Session) Interface() Interface { return s.st.ifc }

// Start opens the capture channel and spawns the reader goroutine, buffering
// every received frame. A session starts at most once: a second Start, even
// after a Stop, returns ErrAlreadyStarted.
func (s *Session) Start() (*ActiveSession, error) {
	return s.start(nil)
}

// StartLive is Start except every frame is passed to handler instead of being
// buffered. The handler runs on the reader goroutine: a slow handler directly
// throttles capture throughput.
func (s *Session) StartLive(handler func([]byte)) (*ActiveSession, error) {
	if handler == nil {
		return nil, fmt.Errorf("nil live handler")
	}
	return s.start(handler)
}

func (s *Session) start(handler func([]byte)) (*ActiveSession, error) {
	if !atomic.CompareAndSwapInt32(&s.st.started, 0, 1) {
		return nil, ErrAlreadyStarted
	}
	src, err := s.st.open()
	if err != nil {
		// never got a reader goroutine, so the session may be started again
		atomic.StoreInt32(&s.st.started, 0)
		return nil, fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}
	slog.Info("[SESSION %s] capture started on %q", s.st.id, s.st.ifc.Name)
	go s.st.readLoop(src, handler)
	return &ActiveSession{st: s.st}, nil
}

// ActiveSession is a capture with a running reader goroutine. Its only
// operation is Stop.
type ActiveSession struct {
	st *sessionState
}

// ID returns the session identity used in logs and reports.
func (a *ActiveSession) ID() string { return a.st.id.String() }

// Stop requests termination and snapshots the buffer. It does not wait for
// the reader goroutine: a frame whose read is already in flight may be
// appended after the snapshot and will then not appear in the results.
// A second Stop returns ErrAlreadyStopped.
func (a *ActiveSession) Stop() (*CompletedSession, error) {
	if !atomic.CompareAndSwapInt32(&a.st.stopped, 0, 1) {
		return nil, ErrAlreadyStopped
	}
	snapshot := a.st.buf.Snapshot()
	slog.Info("[SESSION %s] capture stopped, %d frames", a.st.id, len(snapshot))
	return &CompletedSession{st: a.st, snapshot: snapshot}, nil
}

// CompletedSession holds the immutable result set of a finished capture.
type CompletedSession struct {
	st       *sessionState
	snapshot [][]byte
}

// ID returns the session identity used in logs and reports.
func (c *CompletedSession) ID() string { return c.st.id.String() }

// Err reports a fatal background read failure, if one ended the capture early.
func (c *CompletedSession) Err() error {
	return c.st.getFailure()
}

// ResultsRaw returns the captured frames in arrival order. The returned
// slices are owned by the session results and must not be modified.
func (c *CompletedSession) ResultsRaw() [][]byte {
	return c.snapshot
}

// ResultsAsEthernet decodes the results, silently dropping frames that do not
// parse as ethernet.
func (c *CompletedSession) ResultsAsEthernet() protocol.EthernetFrames {
	return protocol.DecodeEthernet(c.snapshot)
}

// ResultsAsIPv4 decodes the results down to the IPv4 layer.
func (c *CompletedSession) ResultsAsIPv4() protocol.IPv4Packets {
	return c.ResultsAsEthernet().IPv4()
}

// ResultsAsTCP decodes the results down to the TCP layer.
func (c *CompletedSession) ResultsAsTCP() protocol.TCPSegments {
	return c.ResultsAsIPv4().TCP()
}
