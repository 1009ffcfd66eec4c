package notify

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins — adjust for production if needed
		return true
	},
}

// Hub хранит живые WebSocket-подключения, сгруппированные по пользователю,
// и рассылает события обмена.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string][]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string][]*websocket.Conn),
	}
}

type frame struct {
	Event EventName `json:"event"`
	Data  SwapEvent `json:"data"`
}

// ServeWS апгрейдит соединение и держит его до отключения клиента.
// Аутентификация выполняется вызывающей стороной до апгрейда.
func (h *Hub) ServeWS(userID string, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "WebSocket upgrade failed", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	h.subscribers[userID] = append(h.subscribers[userID], conn)
	h.mu.Unlock()

	for {
		// This keeps the connection alive until the client disconnects
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	// Clean up on disconnect
	h.mu.Lock()
	conns := h.subscribers[userID]
	newList := make([]*websocket.Conn, 0, len(conns))
	for _, c := range conns {
		if c != conn {
			newList = append(newList, c)
		}
	}
	if len(newList) == 0 {
		delete(h.subscribers, userID)
	} else {
		h.subscribers[userID] = newList
	}
	h.mu.Unlock()

	conn.Close()
}

// Publish отправляет событие во все подключения пользователя.
// Мёртвые подключения отбрасываются по ошибке записи.
func (h *Hub) Publish(userID string, event EventName, data SwapEvent) {
	payload, err := json.Marshal(frame{Event: event, Data: data})
	if err != nil {
		log.Printf("notify: marshal %s: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.subscribers[userID]
	newList := conns[:0]
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err == nil {
			newList = append(newList, conn)
		} else {
			conn.Close()
		}
	}

	if len(newList) == 0 {
		delete(h.subscribers, userID)
	} else {
		h.subscribers[userID] = newList
	}
}
