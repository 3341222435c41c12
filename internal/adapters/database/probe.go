package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Connectivity errors reported by Probe.
var (
	ErrHostUnresolvable = errors.New("database host could not be resolved")
	ErrPortClosed       = errors.New("database port is not accepting connections")
)

// DefaultProbeTimeout bounds a reachability probe.
const DefaultProbeTimeout = 5 * time.Second

// Probe checks that host:port accepts TCP connections. It is a best-effort
// check made before a full connection attempt.
func Probe(ctx context.Context, host string, port int, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return fmt.Errorf("%w: %s", ErrHostUnresolvable, host)
		}
		return fmt.Errorf("%w: %s:%d: %v", ErrPortClosed, host, port, err)
	}
	return conn.Close()
}
