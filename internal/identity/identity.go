package identity

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultPort is the port the YTMD companion server listens on.
const DefaultPort = 9863

// ServerIdentity names one YTMD server for authorization purposes.
type ServerIdentity struct {
	Host string
	Port int
}

// Normalize builds the identity for host and port without resolving or
// rewriting either value.
func Normalize(host string, port int) ServerIdentity {
	return ServerIdentity{Host: host, Port: port}
}

// Key returns the credential store key: the literal host, a colon, and the port.
func (id ServerIdentity) Key() string {
	return id.Host + ":" + strconv.Itoa(id.Port)
}

func (id ServerIdentity) String() string {
	return id.Key()
}

// BaseURL returns the HTTP origin for the identity. IPv6 literals are bracketed.
func (id ServerIdentity) BaseURL() string {
	return "http://" + net.JoinHostPort(id.Host, strconv.Itoa(id.Port))
}

// Validate reports whether the identity can be dialed at all.
func (id ServerIdentity) Validate() error {
	if strings.TrimSpace(id.Host) == "" {
		return errors.New("server host is empty")
	}
	if id.Port < 1 || id.Port > 65535 {
		return fmt.Errorf("server port %d out of range 1-65535", id.Port)
	}
	return nil
}

// ParseKey reverses Key. The port is taken from the text after the last colon
// so IPv6 hosts survive the round trip.
func ParseKey(key string) (ServerIdentity, error) {
	idx := strings.LastIndex(key, ":")
	if idx < 0 {
		return ServerIdentity{}, fmt.Errorf("identity key %q has no port", key)
	}
	port, err := strconv.Atoi(key[idx+1:])
	if err != nil {
		return ServerIdentity{}, fmt.Errorf("identity key %q: invalid port: %w", key, err)
	}
	return ServerIdentity{Host: key[:idx], Port: port}, nil
}
