package handler

import (
	"log"
	"net/http"
	"time"

	"blinddate/backend/internal/config"
	"blinddate/backend/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Дозволяє з'єднання з будь-якого домену. У продакшені налаштувати!
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket оновлює HTTP-з'єднання до WebSocket та транслює row-events
// користувача: оновлення його власного запису та нові повідомлення для
// нього. Токен приймаємо і з заголовка, і з query (для браузерних клієнтів).
func (h *Handler) ServeWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenString = authHeader[7:]
		}
	}
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
		return
	}

	userID, err := h.validateAndGetUserID(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
		return
	}

	userSub, err := h.Platform.SubscribeUser(userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to subscribe"})
		return
	}
	msgSub, err := h.Platform.SubscribeMessages(userID)
	if err != nil {
		userSub.Unsubscribe()
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to subscribe"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		userSub.Unsubscribe()
		msgSub.Unsubscribe()
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := &wsClient{
		userID: userID,
		conn:   conn,
		send:   make(chan realtime.Event, 64),
		subs:   []*realtime.Subscription{userSub, msgSub},
	}
	client.run()
}

// wsClient пересилає події однієї пари підписок в одне WS-з'єднання.
type wsClient struct {
	userID string
	conn   *websocket.Conn
	send   chan realtime.Event
	subs   []*realtime.Subscription
}

func (c *wsClient) run() {
	for _, sub := range c.subs {
		go c.forward(sub)
	}
	go c.writePump()
	go c.readPump()
}

func (c *wsClient) close() {
	for _, sub := range c.subs {
		sub.Unsubscribe()
	}
	c.conn.Close()
}

// forward перекладає події підписки у канал запису.
func (c *wsClient) forward(sub *realtime.Subscription) {
	for ev := range sub.Events() {
		select {
		case c.send <- ev:
		default:
			// Клієнт надто повільний; опитування надолужить пропуск.
		}
	}
}

// readPump discards inbound frames. Clients write through the REST surface;
// the pump exists to run the pong handler and notice a closed peer.
func (c *wsClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message: %v", err)
			}
			return
		}
	}
}

// writePump читає події з каналу send і записує їх у WebSocket.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Printf("Error writing event for client %s: %v", c.userID, err)
				return
			}

		case <-ticker.C:
			// Надсилаємо Ping для підтримки з'єднання активним
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
