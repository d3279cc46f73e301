package kwik

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/utils"
)

// Config holds the validated construction parameters for a Connection,
// populated through Builder rather than constructed directly.
type Config struct {
	Version            protocol.Version
	ConnectionIDLength int
	Authority          string
	Logger             utils.Logger
	MaxIdleTimeout     time.Duration
}

func (c *Config) clone() *Config {
	cp := *c
	return &cp
}

// Builder constructs a Config through the fluent surface described in §6:
// version, connection_id_length, uri, logger.
type Builder struct {
	cfg Config
	err error
}

// NewBuilder returns a Builder seeded with this engine's defaults: QUIC v1,
// a 4-byte connection ID, and a stderr logger at the default log level.
func NewBuilder() *Builder {
	return &Builder{cfg: Config{
		Version:            protocol.Version1,
		ConnectionIDLength: protocol.DefaultConnIDLen,
		MaxIdleTimeout:     30 * time.Second,
		Logger:             utils.DefaultLogger(),
	}}
}

// Version sets the QUIC version the connection offers. Builder.Build fails
// construction if it is below draft-23.
func (b *Builder) Version(v protocol.Version) *Builder {
	b.cfg.Version = v
	return b
}

// ConnectionIDLength sets the length of the connection IDs this client
// generates for itself, 0..20 bytes.
func (b *Builder) ConnectionIDLength(n int) *Builder {
	if n < 0 || n > protocol.MaxConnIDLen {
		b.err = fmt.Errorf("kwik: invalid argument: connection ID length %d out of range [0, %d]", n, protocol.MaxConnIDLen)
		return b
	}
	b.cfg.ConnectionIDLength = n
	return b
}

// URI sets the server authority ("host:port") this client connects to.
func (b *Builder) URI(authority string) *Builder {
	if _, _, err := net.SplitHostPort(authority); err != nil {
		b.err = fmt.Errorf("kwik: invalid argument: uri %q: %w", authority, err)
		return b
	}
	b.cfg.Authority = authority
	return b
}

// Logger overrides the default logger.
func (b *Builder) Logger(l utils.Logger) *Builder {
	if l != nil {
		b.cfg.Logger = l
	}
	return b
}

// MaxIdleTimeout overrides the default idle timeout advertised in this
// client's transport parameters.
func (b *Builder) MaxIdleTimeout(d time.Duration) *Builder {
	b.cfg.MaxIdleTimeout = d
	return b
}

// Build validates and returns the Config, or the first invalid-argument
// error recorded by a setter, or a version-too-old error.
func (b *Builder) Build() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.cfg.Authority == "" {
		return nil, errors.New("kwik: invalid argument: uri is required")
	}
	if !protocol.IsVersionNegotiation(b.cfg.Version) && b.cfg.Version.Before(protocol.MinSupportedVersion) {
		return nil, fmt.Errorf("kwik: invalid argument: version %s is below the minimum acceptable version %s", b.cfg.Version, protocol.MinSupportedVersion)
	}
	return b.cfg.clone(), nil
}
