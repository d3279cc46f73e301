// Package mocks holds hand-written gomock doubles for the interfaces this
// module consumes rather than implements: Sender and TLSEngine. They follow
// the classic mockgen output shape (ctrl/recorder pair, EXPECT(), calls
// routed through ctrl.Call/RecordCallWithMethodType) rather than the -typed
// generator the upstream project uses, since both shapes are wire-compatible
// with go.uber.org/mock/gomock.Controller.
package mocks

import (
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/johanvos/kwik/internal/ackhandler"
	"github.com/johanvos/kwik/internal/congestion"
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/wire"
)

// MockSender is a mock of the Sender interface.
type MockSender struct {
	ctrl     *gomock.Controller
	recorder *MockSenderRecorder
}

// MockSenderRecorder is the mock recorder for MockSender.
type MockSenderRecorder struct {
	mock *MockSender
}

// NewMockSender returns a new mock of the Sender interface.
func NewMockSender(ctrl *gomock.Controller) *MockSender {
	mock := &MockSender{ctrl: ctrl}
	mock.recorder = &MockSenderRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSender) EXPECT() *MockSenderRecorder {
	return m.recorder
}

func (m *MockSender) Send(f wire.Frame, encLevel protocol.EncryptionLevel, onLost ackhandler.LostCallback) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Send", f, encLevel, onLost)
}

func (mr *MockSenderRecorder) Send(f, encLevel, onLost interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Send", reflect.TypeOf((*MockSender)(nil).Send), f, encLevel, onLost)
}

func (m *MockSender) SendWithoutRetransmission(f wire.Frame, encLevel protocol.EncryptionLevel) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "SendWithoutRetransmission", f, encLevel)
}

func (mr *MockSenderRecorder) SendWithoutRetransmission(f, encLevel interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendWithoutRetransmission", reflect.TypeOf((*MockSender)(nil).SendWithoutRetransmission), f, encLevel)
}

func (m *MockSender) SetInitialToken(token []byte) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "SetInitialToken", token)
}

func (mr *MockSenderRecorder) SetInitialToken(token interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetInitialToken", reflect.TypeOf((*MockSender)(nil).SetInitialToken), token)
}

func (m *MockSender) CongestionController() congestion.Controller {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CongestionController")
	ret0, _ := ret[0].(congestion.Controller)
	return ret0
}

func (mr *MockSenderRecorder) CongestionController() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CongestionController", reflect.TypeOf((*MockSender)(nil).CongestionController))
}

// MockTLSEngine is a mock of the TLSEngine interface.
type MockTLSEngine struct {
	ctrl     *gomock.Controller
	recorder *MockTLSEngineRecorder
}

// MockTLSEngineRecorder is the mock recorder for MockTLSEngine.
type MockTLSEngineRecorder struct {
	mock *MockTLSEngine
}

// NewMockTLSEngine returns a new mock of the TLSEngine interface.
func NewMockTLSEngine(ctrl *gomock.Controller) *MockTLSEngine {
	mock := &MockTLSEngine{ctrl: ctrl}
	mock.recorder = &MockTLSEngineRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTLSEngine) EXPECT() *MockTLSEngineRecorder {
	return m.recorder
}

func (m *MockTLSEngine) StartHandshake(alpn string) ([]byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "StartHandshake", alpn)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockTLSEngineRecorder) StartHandshake(alpn interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "StartHandshake", reflect.TypeOf((*MockTLSEngine)(nil).StartHandshake), alpn)
}

func (m *MockTLSEngine) HandleCryptoData(encLevel protocol.EncryptionLevel, data []byte) ([]byte, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "HandleCryptoData", encLevel, data)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

func (mr *MockTLSEngineRecorder) HandleCryptoData(encLevel, data interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "HandleCryptoData", reflect.TypeOf((*MockTLSEngine)(nil).HandleCryptoData), encLevel, data)
}

func (m *MockTLSEngine) HandshakeComplete() bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "HandshakeComplete")
	ret0, _ := ret[0].(bool)
	return ret0
}

func (mr *MockTLSEngineRecorder) HandshakeComplete() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "HandshakeComplete", reflect.TypeOf((*MockTLSEngine)(nil).HandshakeComplete))
}
