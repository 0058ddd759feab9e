package command

import (
	"log"
	"net"

	"github.com/pkg/errors"
)

// DefaultPort is the UDP port the ground station sends commands to.
const DefaultPort = 14551

const receiveBufferSize = 16

// Receiver listens for command packets on UDP and delivers decoded
// commands on C. Malformed packets are logged and dropped; a slow
// consumer drops the oldest pending command.
type Receiver struct {
	C <-chan Command

	conn *net.UDPConn
	c    chan Command
}

// Listen binds the UDP port and starts the receive loop. A negative
// port selects DefaultPort; port 0 binds an ephemeral port, reported by
// Addr.
func Listen(port int) (*Receiver, error) {
	if port < 0 {
		port = DefaultPort
	}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, errors.Wrapf(err, "listening on udp:%d", port)
	}
	r := &Receiver{conn: conn, c: make(chan Command, receiveBufferSize)}
	r.C = r.c
	go r.readLoop()
	log.Printf("command: listening on %s", conn.LocalAddr())
	return r, nil
}

// Addr returns the bound local address.
func (r *Receiver) Addr() net.Addr {
	return r.conn.LocalAddr()
}

func (r *Receiver) readLoop() {
	defer close(r.c)
	buf := make([]byte, 256)
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			return // closed
		}
		cmd, err := Decode(buf[:n])
		if err != nil {
			log.Println("command: dropping packet:", err)
			continue
		}
		r.deliver(cmd)
	}
}

// deliver queues cmd without ever blocking the read loop. On a full
// channel the oldest pending command is discarded; every receive and
// send stays non-blocking, since a concurrent consumer may drain the
// channel between the two steps.
func (r *Receiver) deliver(cmd Command) {
	select {
	case r.c <- cmd:
		return
	default:
	}
	select {
	case <-r.c:
	default:
	}
	select {
	case r.c <- cmd:
	default:
	}
}

// Close stops the receive loop and closes C.
func (r *Receiver) Close() error {
	return r.conn.Close()
}
