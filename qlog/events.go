package qlog

import (
	"github.com/francoispqt/gojay"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/wire"
)

type connectionStartedData struct {
	srcConnID, destConnID protocol.ConnectionID
	version               protocol.Version
}

func (d connectionStartedData) IsNil() bool { return false }
func (d connectionStartedData) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("src_cid", d.srcConnID.String())
	enc.StringKey("dst_cid", d.destConnID.String())
	enc.StringKey("quic_version", d.version.String())
}

type frameList []wire.Frame

func (fs frameList) IsNil() bool { return fs == nil }
func (fs frameList) MarshalJSONArray(enc *gojay.Encoder) {
	for _, f := range fs {
		enc.Object(frameData{f})
	}
}

type frameData struct{ f wire.Frame }

func (d frameData) IsNil() bool { return d.f == nil }
func (d frameData) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("frame_type", frameTypeName(d.f))
}

func frameTypeName(f wire.Frame) string {
	switch f.(type) {
	case *wire.AckFrame:
		return "ack"
	case *wire.CryptoFrame:
		return "crypto"
	case *wire.StreamFrame:
		return "stream"
	case *wire.MaxDataFrame:
		return "max_data"
	case *wire.MaxStreamDataFrame:
		return "max_stream_data"
	case *wire.NewConnectionIDFrame:
		return "new_connection_id"
	case *wire.RetireConnectionIDFrame:
		return "retire_connection_id"
	case *wire.ConnectionCloseFrame:
		return "connection_close"
	case *wire.PingFrame:
		return "ping"
	case *wire.PaddingFrame:
		return "padding"
	default:
		return "unknown"
	}
}

type packetHeaderData struct {
	packetType protocol.PacketType
	pn         protocol.PacketNumber
}

func (d packetHeaderData) IsNil() bool { return false }
func (d packetHeaderData) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("packet_type", d.packetType.String())
	if d.pn != protocol.InvalidPacketNumber {
		enc.Int64Key("packet_number", int64(d.pn))
	}
}

type packetEventData struct {
	packetType protocol.PacketType
	pn         protocol.PacketNumber
	size       protocol.ByteCount
	frames     []wire.Frame
}

func (d packetEventData) IsNil() bool { return false }
func (d packetEventData) MarshalJSONObject(enc *gojay.Encoder) {
	enc.ObjectKey("header", packetHeaderData{packetType: d.packetType, pn: d.pn})
	if d.size > 0 {
		enc.Int64Key("packet_size", int64(d.size))
	}
	enc.ArrayKeyOmitEmpty("frames", frameList(d.frames))
}

type packetLostData struct {
	packetType protocol.PacketType
	pn         protocol.PacketNumber
}

func (d packetLostData) IsNil() bool { return false }
func (d packetLostData) MarshalJSONObject(enc *gojay.Encoder) {
	enc.ObjectKey("header", packetHeaderData{packetType: d.packetType, pn: d.pn})
}

type congestionStateData struct {
	cwnd, bytesInFlight protocol.ByteCount
}

func (d congestionStateData) IsNil() bool { return false }
func (d congestionStateData) MarshalJSONObject(enc *gojay.Encoder) {
	enc.Int64Key("congestion_window", int64(d.cwnd))
	enc.Int64Key("bytes_in_flight", int64(d.bytesInFlight))
}

type connectionClosedData struct {
	reason string
}

func (d connectionClosedData) IsNil() bool { return false }
func (d connectionClosedData) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("reason", d.reason)
}

type versionInformationData struct {
	versions []protocol.Version
}

func (d versionInformationData) IsNil() bool { return false }
func (d versionInformationData) MarshalJSONObject(enc *gojay.Encoder) {
	enc.ArrayKey("server_versions", versionList(d.versions))
}

type versionList []protocol.Version

func (v versionList) IsNil() bool { return v == nil }
func (v versionList) MarshalJSONArray(enc *gojay.Encoder) {
	for _, ver := range v {
		enc.String(ver.String())
	}
}
