// Package qlog renders a connection's logging.ConnectionTracer events as a
// qlog draft-02 JSON document, streamed with gojay the way the teacher's
// qlog package streams its own event channel.
package qlog

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/francoispqt/gojay"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/wire"
	"github.com/johanvos/kwik/logging"
)

const eventChanSize = 64

// NewTracer returns a logging.ConnectionTracer that writes a single qlog
// document to w as the connection progresses, closing w when Close is
// called.
func NewTracer(w io.WriteCloser, srcConnID protocol.ConnectionID) logging.ConnectionTracer {
	t := &tracer{
		w:             w,
		odcid:         srcConnID,
		referenceTime: time.Now(),
		events:        make(chan event, eventChanSize),
		runStopped:    make(chan struct{}),
	}
	go t.run()
	return t
}

type tracer struct {
	mutex sync.Mutex

	w             io.WriteCloser
	odcid         protocol.ConnectionID
	referenceTime time.Time

	events     chan event
	runStopped chan struct{}
	encodeErr  error
}

func (t *tracer) run() {
	defer close(t.runStopped)
	preamble := fmt.Sprintf(
		`{"qlog_version":"draft-02","qlog_format":"JSON","traces":[{"common_fields":{"ODCID":"%s","reference_time":%f},"events":[`,
		t.odcid, float64(t.referenceTime.UnixNano())/1e6)
	if _, err := t.w.Write([]byte(preamble)); err != nil {
		t.encodeErr = err
	}

	isFirst := true
	for ev := range t.events {
		if t.encodeErr != nil {
			continue
		}
		if !isFirst {
			if _, err := t.w.Write([]byte(",")); err != nil {
				t.encodeErr = err
				continue
			}
		}
		isFirst = false
		enc := gojay.NewEncoder(t.w)
		if err := enc.Encode(ev); err != nil {
			t.encodeErr = err
		}
	}
}

func (t *tracer) recordEvent(name string, data gojay.MarshalerJSONObject) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.events <- event{
		relativeMillis: float64(time.Since(t.referenceTime).Nanoseconds()) / 1e6,
		name:           name,
		data:           data,
	}
}

func (t *tracer) Close() error {
	close(t.events)
	<-t.runStopped
	if t.encodeErr != nil {
		log.Printf("qlog: encoding failed: %s", t.encodeErr)
	}
	if _, err := t.w.Write([]byte(`]}]}`)); err != nil {
		return err
	}
	return t.w.Close()
}

// event is one {time, name, data} record in traces[0].events, per §6.
type event struct {
	relativeMillis float64
	name           string
	data           gojay.MarshalerJSONObject
}

func (e event) IsNil() bool { return false }
func (e event) MarshalJSONArray(enc *gojay.Encoder) {
	enc.Float64(e.relativeMillis)
	enc.String(e.name)
	enc.Object(e.data)
}

func (t *tracer) StartedConnection(srcConnID, destConnID protocol.ConnectionID, version protocol.Version) {
	t.recordEvent("connectivity:connection_started", connectionStartedData{
		srcConnID: srcConnID, destConnID: destConnID, version: version,
	})
}

func (t *tracer) SentPacket(packetType protocol.PacketType, pn protocol.PacketNumber, size protocol.ByteCount, frames []wire.Frame) {
	t.recordEvent("transport:packet_sent", packetEventData{packetType: packetType, pn: pn, size: size, frames: frames})
}

func (t *tracer) ReceivedPacket(packetType protocol.PacketType, pn protocol.PacketNumber, size protocol.ByteCount, frames []wire.Frame) {
	t.recordEvent("transport:packet_received", packetEventData{packetType: packetType, pn: pn, size: size, frames: frames})
}

func (t *tracer) ReceivedVersionNegotiationPacket(versions []protocol.Version) {
	t.recordEvent("transport:version_information", versionInformationData{versions: versions})
}

func (t *tracer) ReceivedRetry() {
	t.recordEvent("transport:packet_received", packetEventData{packetType: protocol.PacketTypeRetry, pn: protocol.InvalidPacketNumber})
}

func (t *tracer) UpdatedCongestionState(cwnd, bytesInFlight protocol.ByteCount) {
	t.recordEvent("recovery:congestion_state_updated", congestionStateData{cwnd: cwnd, bytesInFlight: bytesInFlight})
}

func (t *tracer) LostPacket(packetType protocol.PacketType, pn protocol.PacketNumber) {
	t.recordEvent("recovery:packet_lost", packetLostData{packetType: packetType, pn: pn})
}

func (t *tracer) ClosedConnection(err error) {
	reason := "no_error"
	if err != nil {
		reason = err.Error()
	}
	t.recordEvent("connectivity:connection_closed", connectionClosedData{reason: reason})
}
