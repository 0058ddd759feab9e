package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"

	"github.com/gorilla/websocket"
)

// WebPort is the default port the telemetry web server listens on.
const WebPort = 8000

// Sender is a websocket client that pushes snapshots into a Room served
// elsewhere, e.g. from a drone process to a ground-station web server.
type Sender struct {
	host string
	c    *websocket.Conn
}

// NewSender dials the telemetry web server at host (host:port).
func NewSender(host string) (*Sender, error) {
	if host == "" {
		host = fmt.Sprintf("localhost:%d", WebPort)
	}
	s := &Sender{host: host}
	if err := s.connect(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sender) connect() error {
	u := url.URL{Scheme: "ws", Host: s.host, Path: "/telemetry"}
	var err error
	s.c, _, err = websocket.DefaultDialer.Dial(u.String(), nil)
	return err
}

// Send writes one snapshot as JSON. On a write error it reconnects and
// drops the message.
func (s *Sender) Send(rec Record) error {
	msg, err := json.Marshal(rec)
	if err != nil {
		log.Println("telemetry: error marshalling record:", err)
		return err
	}
	if err := s.c.WriteMessage(websocket.TextMessage, msg); err != nil {
		log.Println("telemetry: error writing to websocket:", err)
		err2 := s.connect()
		return fmt.Errorf("telemetry: %v: %v", err, err2)
	}
	return nil
}

// Close sends a normal-closure frame and closes the socket.
func (s *Sender) Close() {
	if err := s.c.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
		log.Println("telemetry: error closing websocket:", err)
		return
	}
	s.c.Close()
}
