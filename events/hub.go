package events

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/alexeybedrinsky/restaurant-booking/models"
)

// Event types pushed to dashboard clients.
const (
	EventReservationCreate = "reservation_create"
	EventReservationUpdate = "reservation_update"
	EventReservationDelete = "reservation_delete"
	EventTableCreate       = "table_create"
	EventTableUpdate       = "table_update"
	EventTableDelete       = "table_delete"
	EventTablesReset       = "tables_reset"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds the dashboard websocket clients (staff, admin).
type Hub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]string),
}

// RegisterClient adds a connection to the set with its role.
func RegisterClient(conn *websocket.Conn, role string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = role
}

// UnregisterClient drops a connection and closes it.
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// BroadcastReservationUpdate pushes a reservation change to all clients.
func BroadcastReservationUpdate(event string, reservation models.Reservation) {
	broadcast(Message{
		Event: event,
		Data:  reservation,
	})
}

// BroadcastTableUpdate pushes a table change to all clients.
func BroadcastTableUpdate(event string, table models.Table) {
	broadcast(Message{
		Event: event,
		Data:  table,
	})
}

// BroadcastMessage pushes an arbitrary message.
func BroadcastMessage(msg Message) {
	broadcast(msg)
}

func broadcast(msg Message) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	for conn := range hub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Error sending message to client: %v", err)
			continue
		}
	}
}
