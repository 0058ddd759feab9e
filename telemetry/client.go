package telemetry

import "github.com/gorilla/websocket"

// client represents one connected websocket viewer.
type client struct {
	socket *websocket.Conn
	send   chan []byte
	room   *Room
}

// read re-broadcasts inbound frames to the room, so a remote producer
// (a Sender) can push telemetry through a ground-station room.
func (c *client) read() {
	defer c.socket.Close()
	for {
		_, msg, err := c.socket.ReadMessage()
		if err != nil {
			return
		}
		select {
		case c.room.forward <- msg:
		default:
		}
	}
}

func (c *client) write() {
	defer c.socket.Close()
	for msg := range c.send {
		if err := c.socket.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
