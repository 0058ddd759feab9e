package telemetry

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// Room broadcasts telemetry snapshots to every connected websocket
// client. Client-server shape adapted from Mat Ryer's Go Blueprints
// examples.
type Room struct {
	// forward holds incoming messages to be forwarded to all clients.
	forward chan []byte
	// join is a channel for clients wishing to join the room.
	join chan *client
	// leave is a channel for clients wishing to leave the room.
	leave chan *client
	// clients holds all current clients in this room.
	clients map[*client]bool
}

// NewRoom makes a new room that is ready to go.
func NewRoom() *Room {
	return &Room{
		forward: make(chan []byte, messageBufferSize),
		join:    make(chan *client),
		leave:   make(chan *client),
		clients: make(map[*client]bool),
	}
}

// Run services joins, leaves and broadcasts until the process exits.
// Run it on its own goroutine.
func (r *Room) Run() {
	for {
		select {
		case client := <-r.join:
			r.clients[client] = true
			log.Println("telemetry: new client joined")
		case client := <-r.leave:
			delete(r.clients, client)
			close(client.send)
			log.Println("telemetry: client left")
		case msg := <-r.forward:
			for client := range r.clients {
				select {
				case client.send <- msg:
				default:
					// client too slow; drop this message for it
				}
			}
		}
	}
}

// Broadcast queues one snapshot, JSON-encoded, for all clients. It
// never blocks the control loop: on backpressure the snapshot is
// dropped.
func (r *Room) Broadcast(rec Record) {
	msg, err := json.Marshal(rec)
	if err != nil {
		log.Println("telemetry: error marshalling record:", err)
		return
	}
	select {
	case r.forward <- msg:
	default:
	}
}

const (
	socketBufferSize  = 1024
	messageBufferSize = 10
)

var upgrader = &websocket.Upgrader{ReadBufferSize: socketBufferSize, WriteBufferSize: socketBufferSize}

// ServeHTTP upgrades the connection and joins the client to the room.
func (r *Room) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	socket, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Println("telemetry: upgrade failed:", err)
		return
	}
	client := &client{
		socket: socket,
		send:   make(chan []byte, messageBufferSize),
		room:   r,
	}
	r.join <- client
	defer func() { r.leave <- client }()
	go client.write()
	client.read()
}
