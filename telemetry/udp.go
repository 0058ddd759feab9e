package telemetry

import (
	"net"

	"github.com/pkg/errors"
)

// DefaultPort is the UDP port telemetry packets are sent to.
const DefaultPort = 14550

// UDPSender transmits packed Records to a ground station address.
type UDPSender struct {
	conn *net.UDPConn
}

// NewUDPSender dials the ground station at addr ("host:port"; the
// default port is used when the port is omitted).
func NewUDPSender(addr string) (*UDPSender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %q", addr)
	}
	if udpAddr.Port == 0 {
		udpAddr.Port = DefaultPort
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, errors.Wrap(err, "dialing telemetry")
	}
	return &UDPSender{conn: conn}, nil
}

// Send transmits one packed snapshot. Delivery is best-effort.
func (s *UDPSender) Send(rec Record) error {
	_, err := s.conn.Write(rec.Marshal())
	return err
}

// Close closes the socket.
func (s *UDPSender) Close() error {
	return s.conn.Close()
}
