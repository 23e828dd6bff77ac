/*
Package capture drives the lifecycle of a live packet capture using libpcap or
AF_PACKET. A capture session moves through a strictly linear lifecycle,
enforced by the type system:

	Bind/BindDefault -> *Session -> Start/StartLive -> *ActiveSession -> Stop -> *CompletedSession

example:

	sess, err := capture.BindDefault(capture.DefaultOptions())
	if err != nil {
		// handle error
	}
	active, err := sess.Start()
	if err != nil {
		// handle error
	}
	time.Sleep(15 * time.Second)
	done, err := active.Stop()
	if err != nil {
		// handle error
	}
	segments := done.ResultsAsTCP()

Stop only requests termination: the reader goroutine exits after its current
blocking read returns. The result snapshot is taken at the moment Stop is
called, so a frame already in flight may or may not be included. This race is
inherent to a best-effort capture and is deliberately left as is.
*/
package capture
