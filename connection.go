package kwik

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/johanvos/kwik/internal/ackhandler"
	"github.com/johanvos/kwik/internal/cid"
	"github.com/johanvos/kwik/internal/congestion"
	"github.com/johanvos/kwik/internal/flowcontrol"
	"github.com/johanvos/kwik/internal/handshake"
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/qerr"
	"github.com/johanvos/kwik/internal/utils"
	"github.com/johanvos/kwik/internal/wire"
	"github.com/johanvos/kwik/logging"
)

// ConnectionState is the client connection's position in the lifecycle of
// §4.2: it only ever moves forward, Idle -> Handshaking -> Connected, with
// Closing/Draining/Closed reachable from any earlier state.
type ConnectionState uint8

const (
	StateIdle ConnectionState = iota
	StateHandshaking
	StateConnected
	StateClosing
	StateDraining
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHandshaking:
		return "handshaking"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection is a single client-side QUIC connection attempt: the state
// machine driving the handshake, the packet/frame codec applied to
// everything the peer sends, and the loss-detection, congestion-control,
// flow-control and connection-ID bookkeeping that accompany it.
type Connection struct {
	mu sync.Mutex

	cfg    *Config
	sender Sender
	tls    TLSEngine
	tracer logging.ConnectionTracer
	logger utils.Logger

	state ConnectionState

	version          protocol.Version
	origDestConnID   protocol.ConnectionID // the destination CID used in this client's very first Initial
	usedDestConnID   protocol.ConnectionID // the destination CID actually carried on the wire (post-Retry, if any)
	retrySrcConnID   protocol.ConnectionID // non-nil once a Retry has been accepted
	retryProcessed   bool
	initialSrcConnID protocol.ConnectionID

	initialSealer handshake.LongHeaderSealer
	initialOpener handshake.LongHeaderOpener

	srcCIDs  *cid.SourceManager
	destCIDs *cid.DestinationManager

	localTP *wire.TransportParameters
	peerTP  *wire.TransportParameters

	rttStats    *utils.RTTStats
	sentPackets *ackhandler.SentPacketHandler
	frameParser *wire.FrameParser
	nextPN      [protocol.PNSpaceCount]protocol.PacketNumber

	cidQueue           cid.QueueFrame
	anyPacketProcessed bool // true once any Initial/Handshake/1-RTT packet from the server has been handled
	initialCryptoData  []byte
	lastActivity       time.Time
	pacer              *congestion.Pacer

	connFC         *flowcontrol.ConnectionFlowController
	streams        map[protocol.StreamID]*Stream
	nextBidiStream uint64
	nextUniStream  uint64

	closeSent bool
	closeErr  error
}

// NewConnection wires a connection's components together the way a
// Builder-produced Config, a caller-supplied Sender/TLSEngine and an
// optional tracer are assembled before Connect is called.
func NewConnection(cfg *Config, sender Sender, tls TLSEngine, tracer logging.ConnectionTracer) (*Connection, error) {
	if tracer == nil {
		tracer = logging.NullConnectionTracer
	}
	initialSrcConnID, err := protocol.GenerateConnectionID(cfg.ConnectionIDLength)
	if err != nil {
		return nil, err
	}
	origDestConnID, err := protocol.GenerateConnectionID(8)
	if err != nil {
		return nil, err
	}
	sealer, opener, err := handshake.NewInitialAEAD(origDestConnID, cfg.Version)
	if err != nil {
		return nil, err
	}

	rttStats := utils.NewRTTStats()
	c := &Connection{
		cfg:              cfg,
		sender:           sender,
		tls:              tls,
		tracer:           tracer,
		logger:           cfg.Logger,
		state:            StateIdle,
		version:          cfg.Version,
		origDestConnID:   origDestConnID,
		usedDestConnID:   origDestConnID,
		initialSrcConnID: initialSrcConnID,
		initialSealer:    sealer,
		initialOpener:    opener,
		localTP:          localTransportParameters(cfg),
		rttStats:         rttStats,
		sentPackets:      ackhandler.NewSentPacketHandler(rttStats, cfg.Logger),
		frameParser:      wire.NewFrameParser(),
		connFC:           flowcontrol.NewConnectionFlowController(protocol.DefaultMaxReceiveWindow, protocol.DefaultMaxReceiveWindow, rttStats),
		streams:          make(map[protocol.StreamID]*Stream),
		pacer:            congestion.NewPacer(congestion.BandwidthFromCongestionWindow(congestion.InitialWindow, protocol.InitialRTT)),
	}
	for i := range c.nextPN {
		c.nextPN[i] = 0
	}
	c.cidQueue = func(f wire.Frame, encLevel protocol.EncryptionLevel, onLost ackhandler.LostCallback) {
		c.sendFrame(f, encLevel, onLost)
	}
	c.srcCIDs = cid.NewSourceManager(initialSrcConnID, c.cidQueue)
	c.destCIDs = cid.NewDestinationManager(origDestConnID, c.cidQueue)
	return c, nil
}

func localTransportParameters(cfg *Config) *wire.TransportParameters {
	return &wire.TransportParameters{
		InitialMaxData:                 15 << 20,
		InitialMaxStreamDataBidiLocal:  6 << 20,
		InitialMaxStreamDataBidiRemote: 6 << 20,
		InitialMaxStreamDataUni:        6 << 20,
		InitialMaxStreamsBidi:          100,
		InitialMaxStreamsUni:           100,
		ActiveConnectionIDLimit:        4,
		AckDelayExponent:               protocol.DefaultAckDelayExponent,
		MaxAckDelay:                    protocol.MaxAckDelay,
		MaxIdleTimeout:                 cfg.MaxIdleTimeout,
		MaxUDPPayloadSize:              1452,
	}
}

// Connect begins the handshake: it asks the TLS engine for the first
// ClientHello bytes and carries them in a CRYPTO frame at the Initial
// encryption level, moving the connection from Idle to Handshaking.
func (c *Connection) Connect(alpn string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return fmt.Errorf("kwik: Connect called in state %s", c.state)
	}
	chello, err := c.tls.StartHandshake(alpn)
	if err != nil {
		return err
	}
	c.state = StateHandshaking
	c.initialCryptoData = chello
	c.tracer.StartedConnection(c.initialSrcConnID, c.usedDestConnID, c.version)
	c.sendCryptoFrame(protocol.EncryptionInitial, 0, chello)
	return nil
}

func (c *Connection) sendCryptoFrame(encLevel protocol.EncryptionLevel, offset protocol.ByteCount, data []byte) {
	f := &wire.CryptoFrame{Offset: offset, Data: data}
	var resend func([]wire.Frame)
	resend = func(lost []wire.Frame) {
		for _, lf := range lost {
			if cf, ok := lf.(*wire.CryptoFrame); ok {
				c.sendFrame(cf, encLevel, resend)
			}
		}
	}
	c.sendFrame(f, encLevel, resend)
}

// sendFrame assigns the next packet number in f's packet-number space for
// loss-detection bookkeeping, hands f to the sender façade for
// transmission, and records the send with the tracer.
func (c *Connection) sendFrame(f wire.Frame, encLevel protocol.EncryptionLevel, onLost ackhandler.LostCallback) {
	space := protocol.SpaceForEncryptionLevel(encLevel)
	pn := c.nextPN[space]
	c.nextPN[space]++
	now := time.Now()
	size := f.Length(c.version)
	c.lastActivity = now
	c.sentPackets.PacketSent(space, pn, now, size, []wire.Frame{f}, onLost)
	c.tracer.SentPacket(packetTypeForLevel(encLevel), pn, size, []wire.Frame{f})
	c.sender.Send(f, encLevel, onLost)
}

// NextSendTime reports when a packet of size n may next be sent without
// exceeding the pacer's bandwidth estimate, or the zero Time if it may be
// sent now. A concrete Sender implementation's flush loop consults this
// before dequeuing the next outgoing frame.
func (c *Connection) NextSendTime(n protocol.ByteCount) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pacer.TimeUntilSend(time.Now(), n)
}

func packetTypeForLevel(e protocol.EncryptionLevel) protocol.PacketType {
	switch e {
	case protocol.EncryptionInitial:
		return protocol.PacketTypeInitial
	case protocol.EncryptionHandshake:
		return protocol.PacketTypeHandshake
	case protocol.Encryption0RTT:
		return protocol.PacketType0RTT
	default:
		return protocol.PacketType1RTT
	}
}

// HandlePacket is the packet parser and demultiplexer of §4.1: it
// classifies data as Version Negotiation, a long-header packet, or a
// short-header (1-RTT) packet, and dispatches accordingly. Coalesced
// packets are processed one at a time until the datagram is exhausted.
func (c *Connection) HandlePacket(data []byte, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActivity = now
	for len(data) > 0 {
		if wire.IsVersionNegotiationPacket(data) {
			return c.handleVersionNegotiation(data)
		}
		if !wire.IsLongHeaderPacket(data[0]) {
			return c.handleShortHeaderPacket(data, now)
		}
		hdr, thisPacket, rest, err := wire.ParseLongHeader(data)
		if err == wire.ErrUnsupportedVersion {
			c.logger.Debugf("dropping long header packet with unsupported version")
			return nil
		}
		if err != nil {
			return qerr.NewLocalError(qerr.FrameEncodingError, fmt.Sprintf("invalid packet: %s", err))
		}
		if hdr.Type == protocol.PacketTypeRetry {
			return c.handleRetry(hdr, thisPacket)
		}
		if hdr.Type == protocol.PacketType0RTT {
			return qerr.NewLocalError(qerr.ProtocolViolation, "invalid packet: unexpected 0-RTT packet from server")
		}
		if err := c.handleLongHeaderPacket(hdr, thisPacket, now); err != nil {
			return err
		}
		data = rest
	}
	return nil
}

// handleRetry implements the three-step Retry algorithm of §4.2: verify
// the integrity tag against the original destination CID, reject a Retry
// received after one has already been processed or after any other
// server packet, then adopt the new destination CID, remember the token
// and the Retry's source CID, and re-drive the Initial CRYPTO data under
// fresh Initial keys.
func (c *Connection) handleRetry(hdr *wire.Header, packet []byte) error {
	c.tracer.ReceivedRetry()
	if c.retryProcessed || c.anyPacketProcessed {
		return nil
	}
	if len(hdr.Token) == 0 {
		return qerr.NewLocalError(qerr.ProtocolViolation, "Retry packet carries no token")
	}
	tagOffset := len(packet) - 16
	pseudoPacket := packet[:tagOffset]
	var tag [16]byte
	copy(tag[:], packet[tagOffset:])
	if !handshake.VerifyRetryIntegrityTag(c.version, pseudoPacket, c.origDestConnID, tag) {
		return qerr.NewLocalError(qerr.ProtocolViolation, "Retry integrity tag mismatch")
	}

	c.retryProcessed = true
	c.retrySrcConnID = hdr.SrcConnectionID
	c.usedDestConnID = hdr.SrcConnectionID
	c.destCIDs = cid.NewDestinationManager(hdr.SrcConnectionID, c.cidQueue)
	c.sender.SetInitialToken(hdr.Token)

	sealer, opener, err := handshake.NewInitialAEAD(hdr.SrcConnectionID, c.version)
	if err != nil {
		return err
	}
	c.initialSealer, c.initialOpener = sealer, opener

	c.nextPN[protocol.PNSpaceInitial] = 0
	c.sentPackets.Reset(protocol.PNSpaceInitial)
	// Retry carries no new ClientHello; re-send the same CRYPTO bytes under
	// the fresh Initial keys derived from the Retry's source CID.
	c.sendCryptoFrame(protocol.EncryptionInitial, 0, c.initialCryptoData)
	return nil
}

// handleVersionNegotiation implements §4.2's ignore rules: a VN packet is
// meaningless once any other server packet has been processed, and
// meaningless if this client's own version already appears in the
// server's supported-version list (a genuine server would never have sent
// VN in that case; treat it as a network anomaly rather than a negotiation
// failure).
func (c *Connection) handleVersionNegotiation(data []byte) error {
	if c.anyPacketProcessed || c.retryProcessed {
		return nil
	}
	_, _, versions, err := wire.ParseVersionNegotiationPacket(data)
	if err != nil {
		return qerr.NewLocalError(qerr.FrameEncodingError, "invalid Version Negotiation packet")
	}
	c.tracer.ReceivedVersionNegotiationPacket(versions)
	for _, v := range versions {
		if v == c.version {
			return nil
		}
	}
	for _, v := range versions {
		if protocol.IsSupported(v) {
			return &versionNegotiationRestartError{proposed: v}
		}
	}
	return &qerr.VersionNegotiationError{}
}

type versionNegotiationRestartError struct{ proposed protocol.Version }

func (e *versionNegotiationRestartError) Error() string {
	return fmt.Sprintf("kwik: peer requires version %s; restart the connection with that version", e.proposed)
}

// handleLongHeaderPacket unprotects and decrypts an Initial packet with
// this connection's Initial keys, or - for Handshake packets, whose keys
// are derived from the TLS engine's key schedule rather than a fixed
// salt - treats the payload as already in the clear, matching the scope
// this engine implements. It then parses and dispatches every frame in
// the payload.
func (c *Connection) handleLongHeaderPacket(hdr *wire.Header, packet []byte, now time.Time) error {
	encLevel := hdr.EncryptionLevel()
	c.anyPacketProcessed = true
	if err := c.srcCIDs.OnPacketReceived(hdr.DestConnectionID); err != nil {
		return err
	}

	var payload []byte
	var pn protocol.PacketNumber
	if encLevel == protocol.EncryptionInitial {
		var err error
		payload, pn, err = c.unprotectInitial(hdr, packet)
		if err != nil {
			return err
		}
	} else {
		payload = packet[int(hdr.ParsedLen()):]
		pn = protocol.PacketNumber(0)
	}

	c.tracer.ReceivedPacket(hdr.Type, pn, protocol.ByteCount(len(packet)), nil)
	return c.handleFramePayload(payload, encLevel, now)
}

// unprotectInitial removes header protection from an Initial packet and
// decrypts its payload, per RFC 9001 §5.4.
func (c *Connection) unprotectInitial(hdr *wire.Header, packet []byte) ([]byte, protocol.PacketNumber, error) {
	hdrLen := int(hdr.ParsedLen())
	if len(packet) < hdrLen+4+16 {
		return nil, 0, qerr.NewLocalError(qerr.FrameEncodingError, "Initial packet too short")
	}
	sampleOffset := hdrLen + 4
	sample := packet[sampleOffset : sampleOffset+16]

	firstByte := packet[0]
	pnBytes := make([]byte, 4)
	copy(pnBytes, packet[hdrLen:hdrLen+4])
	c.initialOpener.DecryptHeader(sample, &firstByte, pnBytes)

	pnLen := int(firstByte&0x03) + 1
	truncated := decodeTruncatedPN(pnBytes[:pnLen])

	headerBytes := make([]byte, hdrLen+pnLen)
	copy(headerBytes, packet[:hdrLen])
	headerBytes[0] = firstByte
	copy(headerBytes[hdrLen:], pnBytes[:pnLen])

	encryptedPayload := packet[hdrLen+pnLen:]
	largestAcked := protocol.InvalidPacketNumber
	pn := protocol.DecodePacketNumber(protocol.PacketNumberLen(pnLen), largestAcked, truncated)

	payload, err := c.initialOpener.Open(nil, encryptedPayload, pn, headerBytes)
	if err != nil {
		return nil, 0, err
	}
	return payload, pn, nil
}

func decodeTruncatedPN(b []byte) protocol.PacketNumber {
	buf := make([]byte, 4)
	copy(buf[4-len(b):], b)
	return protocol.PacketNumber(binary.BigEndian.Uint32(buf))
}

// handleShortHeaderPacket handles a 1-RTT packet. Key removal isn't
// implemented at this encryption level (it depends on the TLS engine's
// key schedule); the payload is parsed directly.
func (c *Connection) handleShortHeaderPacket(data []byte, now time.Time) error {
	connIDLen := c.cfg.ConnectionIDLength
	sh, err := wire.ParseShortHeader(data, connIDLen)
	if err != nil {
		return qerr.NewLocalError(qerr.FrameEncodingError, fmt.Sprintf("invalid packet: %s", err))
	}
	c.anyPacketProcessed = true
	if err := c.srcCIDs.OnPacketReceived(sh.DestConnectionID); err != nil {
		return err
	}
	payload := data[sh.Len():]
	c.tracer.ReceivedPacket(protocol.PacketType1RTT, sh.PacketNumber, protocol.ByteCount(len(data)), nil)
	return c.handleFramePayload(payload, protocol.Encryption1RTT, now)
}

func (c *Connection) handleFramePayload(payload []byte, encLevel protocol.EncryptionLevel, now time.Time) error {
	for len(payload) > 0 {
		f, n, err := c.frameParser.ParseNext(payload, encLevel, c.version)
		if err != nil {
			return qerr.NewLocalError(qerr.FrameEncodingError, err.Error())
		}
		if err := c.handleFrame(f, encLevel, now); err != nil {
			return err
		}
		payload = payload[n:]
	}
	return nil
}

// handleFrame dispatches a single parsed frame per §4.3.
func (c *Connection) handleFrame(f wire.Frame, encLevel protocol.EncryptionLevel, now time.Time) error {
	switch fr := f.(type) {
	case *wire.PaddingFrame, *wire.PingFrame:
		return nil
	case *wire.CryptoFrame:
		return c.handleCryptoFrame(fr, encLevel)
	case *wire.AckFrame:
		return c.handleAckFrame(fr, encLevel, now)
	case *wire.MaxDataFrame:
		c.connFC.UpdateSendWindow(fr.MaximumData)
		return nil
	case *wire.MaxStreamDataFrame:
		return c.handleMaxStreamData(fr)
	case *wire.StreamFrame:
		return c.handleStreamFrame(fr)
	case *wire.NewConnectionIDFrame:
		return c.destCIDs.Add(fr)
	case *wire.RetireConnectionIDFrame:
		return c.srcCIDs.Retire(fr.SequenceNumber)
	case *wire.ConnectionCloseFrame:
		return c.handleConnectionClose(fr, encLevel)
	default:
		return nil
	}
}

func (c *Connection) handleCryptoFrame(fr *wire.CryptoFrame, encLevel protocol.EncryptionLevel) error {
	out, complete, err := c.tls.HandleCryptoData(encLevel, fr.Data)
	if err != nil {
		return qerr.NewLocalError(qerr.CryptoErrorCode(0), err.Error())
	}
	if len(out) > 0 {
		c.sendCryptoFrame(encLevel, 0, out)
	}
	if complete && c.state == StateHandshaking {
		return c.completeHandshake(encLevel)
	}
	return nil
}

// completeHandshake applies the peer's transport parameters per §4.2's
// validation rules, seeds the connection- and stream-level flow
// controllers from them, and moves the connection to Connected. encLevel
// is the level the completing CRYPTO frame arrived at, and is also the
// level at which a validation failure's CONNECTION_CLOSE goes out: this
// client has no 1-RTT keys yet at this point in the handshake.
func (c *Connection) completeHandshake(encLevel protocol.EncryptionLevel) error {
	if c.peerTP == nil {
		c.closeImmediately(qerr.NewLocalError(qerr.TransportParameterError, "handshake completed without transport parameters"), encLevel)
		return c.closeErr
	}
	var retrySrc protocol.ConnectionID
	if c.retryProcessed {
		retrySrc = c.retrySrcConnID
	}
	if err := c.peerTP.ValidateForClient(c.usedDestConnID, c.origDestConnID, retrySrc); err != nil {
		c.closeImmediately(qerr.NewLocalError(qerr.TransportParameterError, err.Error()), encLevel)
		return c.closeErr
	}
	c.connFC.UpdateSendWindow(c.peerTP.InitialMaxData)
	c.srcCIDs.SetActiveConnectionIDLimit(c.peerTP.ActiveConnectionIDLimit)
	c.frameParser.SetAckDelayExponent(c.peerTP.AckDelayExponent)
	c.rttStats.SetMaxAckDelay(c.peerTP.MaxAckDelay)
	c.sentPackets.SetHandshakeConfirmed()
	c.state = StateConnected
	return nil
}

// SetPeerTransportParameters records the server's transport parameters as
// parsed out of its Handshake-level TLS extension. It must be called
// before the CRYPTO frame that completes the handshake is processed.
func (c *Connection) SetPeerTransportParameters(tp *wire.TransportParameters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peerTP = tp
}

func (c *Connection) handleAckFrame(fr *wire.AckFrame, encLevel protocol.EncryptionLevel, now time.Time) error {
	space := protocol.SpaceForEncryptionLevel(encLevel)
	c.sentPackets.ReceivedAck(fr, space, fr.DelayTime, now)
	cwnd := c.sentPackets.CongestionWindow()
	c.pacer.SetBandwidth(congestion.BandwidthFromCongestionWindow(cwnd, c.rttStats.SmoothedRTT()))
	c.tracer.UpdatedCongestionState(cwnd, 0)
	return nil
}

func (c *Connection) handleMaxStreamData(fr *wire.MaxStreamDataFrame) error {
	s, ok := c.streams[fr.StreamID]
	if !ok {
		return nil
	}
	s.flowController.UpdateSendWindow(fr.MaximumData)
	return nil
}

// handleStreamFrame folds a received STREAM frame's end offset into its
// stream's flow controller and the connection-level one, per §4.6. A frame
// for a stream this client never opened (the server may only ever send on
// streams it was permitted to use, which this client-only engine doesn't
// grant) is ignored rather than treated as a protocol violation.
func (c *Connection) handleStreamFrame(fr *wire.StreamFrame) error {
	s, ok := c.streams[fr.StreamID]
	if !ok {
		return nil
	}
	endOffset := fr.Offset + protocol.ByteCount(len(fr.Data))
	increment, err := s.flowController.UpdateHighestReceived(endOffset)
	if err == flowcontrol.ErrReceivedSmallerByteOffset {
		return nil // reordered frame: a higher offset has already been seen
	}
	if err != nil {
		return qerr.NewLocalFrameError(qerr.FlowControlError, 0x08, err.Error()) // STREAM frame type range base
	}
	if s.flowController.CheckFlowControlViolation() {
		return qerr.NewLocalFrameError(qerr.FlowControlError, 0x08, "received data beyond the stream's receive window")
	}
	if increment > 0 {
		c.connFC.IncrementHighestReceived(increment)
	}
	return nil
}

// sendStreamFrame hands f to the connection's retransmission machinery, the
// same resend-on-loss closure pattern sendCryptoFrame uses.
func (c *Connection) sendStreamFrame(f *wire.StreamFrame) {
	var resend func([]wire.Frame)
	resend = func(lost []wire.Frame) {
		for _, lf := range lost {
			if sf, ok := lf.(*wire.StreamFrame); ok {
				c.sendFrame(sf, protocol.Encryption1RTT, resend)
			}
		}
	}
	c.sendFrame(f, protocol.Encryption1RTT, resend)
}

// handleConnectionClose implements §4.3's reply-once rule: the first
// CONNECTION_CLOSE the peer sends drives this connection into Draining and
// elicits exactly one CONNECTION_CLOSE in reply; any further one is
// ignored.
func (c *Connection) handleConnectionClose(fr *wire.ConnectionCloseFrame, encLevel protocol.EncryptionLevel) error {
	if c.state == StateClosed || c.state == StateDraining {
		return nil
	}
	var err error
	if fr.IsApplicationError {
		err = qerr.NewRemoteApplicationError(fr.ErrorCode, fr.ReasonPhrase)
	} else {
		err = &qerr.TransportError{ErrorCode: qerr.TransportErrorCode(fr.ErrorCode), Remote: true, ErrorMessage: fr.ReasonPhrase}
	}
	c.closeErr = err
	c.state = StateDraining
	c.tracer.ClosedConnection(err)
	if !c.closeSent {
		c.sendConnectionClose(qerr.NewLocalError(qerr.NoError, ""), encLevel)
	}
	return nil
}

// Close implements the connection-close idempotency semantics of §4.2:
// the first call sends CONNECTION_CLOSE and moves to Closing; any further
// call is a no-op.
func (c *Connection) Close(appErrCode uint64, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closeSent {
		return nil
	}
	err := qerr.NewLocalApplicationError(appErrCode, reason)
	c.closeErr = err
	c.state = StateClosing
	var ccf wire.Frame = &wire.ConnectionCloseFrame{IsApplicationError: true, ErrorCode: appErrCode, ReasonPhrase: reason}
	c.sender.SendWithoutRetransmission(ccf, protocol.Encryption1RTT)
	c.closeSent = true
	c.tracer.ClosedConnection(nil)
	return nil
}

func (c *Connection) closeImmediately(err error, encLevel protocol.EncryptionLevel) {
	c.closeErr = err
	c.state = StateClosing
	c.sendConnectionClose(err, encLevel)
	c.tracer.ClosedConnection(err)
}

func (c *Connection) sendConnectionClose(err error, encLevel protocol.EncryptionLevel) {
	code := qerr.InternalError
	if te, ok := err.(*qerr.TransportError); ok {
		code = te.ErrorCode
	}
	var ccf wire.Frame = &wire.ConnectionCloseFrame{ErrorCode: uint64(code), ReasonPhrase: err.Error()}
	c.sender.SendWithoutRetransmission(ccf, encLevel)
	c.closeSent = true
}

// State reports the connection's current lifecycle state.
func (c *Connection) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CongestionWindow exposes the sender's current congestion window, as
// reported to the qlog/metrics tracers.
func (c *Connection) CongestionWindow() protocol.ByteCount {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sentPackets.CongestionWindow()
}

