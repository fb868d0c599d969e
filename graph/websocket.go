package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/graph-gophers/graphql-go"
	qerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Подпротоколы WebSocket.
const (
	// протокол библиотеки graphql-ws
	protocolTransportWS = "graphql-transport-ws"
	// устаревший протокол subscriptions-transport-ws
	protocolLegacyWS = "graphql-ws"
)

const (
	msgConnectionInit      = "connection_init"
	msgConnectionAck       = "connection_ack"
	msgConnectionTerminate = "connection_terminate"
	msgKeepAlive           = "ka"
	msgPing                = "ping"
	msgPong                = "pong"
	msgSubscribe           = "subscribe"
	msgStart               = "start"
	msgNext                = "next"
	msgData                = "data"
	msgError               = "error"
	msgComplete            = "complete"
	msgStop                = "stop"
)

// Коды закрытия graphql-transport-ws.
const (
	closeInvalidMessage   = 4400
	closeUnauthorized     = 4401
	closeInitTimeout      = 4408
	closeSubscriberExists = 4409
	closeTooManyInits     = 4429
)

const writeWait = 10 * time.Second

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsOperation struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// wsConn обслуживает одно WebSocket-соединение. Каждая операция выполняется
// в своей горутине и отменяется сообщением complete/stop или закрытием соединения.
type wsConn struct {
	conn        *websocket.Conn
	schema      *graphql.Schema
	legacy      bool
	keepAlive   time.Duration
	initTimeout time.Duration
	logger      *slog.Logger

	writeMu sync.Mutex

	mu          sync.Mutex
	initialized bool
	ops         map[string]context.CancelFunc
}

func (c *wsConn) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		_ = c.conn.Close()
	}()

	if c.initTimeout > 0 {
		timer := time.AfterFunc(c.initTimeout, func() {
			if !c.isInitialized() {
				c.close(closeInitTimeout, "Connection initialisation timeout")
			}
		})
		defer timer.Stop()
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("websocket read failed", slog.String("error", err.Error()))
			}
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.close(closeInvalidMessage, "Invalid message received")
			return
		}
		if !c.handle(ctx, msg) {
			return
		}
	}
}

// handle обрабатывает сообщение клиента. false означает, что соединение
// нужно закрыть.
func (c *wsConn) handle(ctx context.Context, msg wsMessage) bool {
	switch msg.Type {
	case msgConnectionInit:
		c.mu.Lock()
		repeated := c.initialized
		c.initialized = true
		c.mu.Unlock()
		if repeated {
			c.close(closeTooManyInits, "Too many initialisation requests")
			return false
		}
		if err := c.write(wsMessage{Type: msgConnectionAck}); err != nil {
			return false
		}
		go c.keepAliveLoop(ctx)
	case msgPing:
		_ = c.write(wsMessage{Type: msgPong, Payload: msg.Payload})
	case msgPong:
	case msgSubscribe, msgStart:
		if !c.isInitialized() {
			c.close(closeUnauthorized, "Unauthorized")
			return false
		}
		return c.subscribe(ctx, msg)
	case msgComplete, msgStop:
		c.stop(msg.ID)
	case msgConnectionTerminate:
		return false
	default:
		c.close(closeInvalidMessage, fmt.Sprintf("Unexpected message of type %s received", msg.Type))
		return false
	}
	return true
}

func (c *wsConn) subscribe(ctx context.Context, msg wsMessage) bool {
	var op wsOperation
	if msg.ID == "" || json.Unmarshal(msg.Payload, &op) != nil {
		c.close(closeInvalidMessage, "Invalid subscribe message")
		return false
	}

	opCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if _, exists := c.ops[msg.ID]; exists {
		c.mu.Unlock()
		cancel()
		c.close(closeSubscriberExists, fmt.Sprintf("Subscriber for %s already exists", msg.ID))
		return false
	}
	c.ops[msg.ID] = cancel
	c.mu.Unlock()

	go c.execute(opCtx, msg.ID, op)
	return true
}

func (c *wsConn) execute(ctx context.Context, id string, op wsOperation) {
	defer c.finish(id)

	if operationType(op) != ast.Subscription {
		c.send(id, c.schema.Exec(ctx, op.Query, op.OperationName, op.Variables))
		return
	}

	responses, err := c.schema.Subscribe(ctx, op.Query, op.OperationName, op.Variables)
	if err != nil {
		c.send(id, &graphql.Response{Errors: []*qerrors.QueryError{qerrors.Errorf("%s", err)}})
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-responses:
			if !ok {
				return
			}
			resp, ok := v.(*graphql.Response)
			if !ok {
				continue
			}
			if !c.send(id, resp) {
				return
			}
		}
	}
}

// send отправляет результат операции. Ответ без данных с ошибками завершает
// операцию сообщением error, после него complete не отправляется.
func (c *wsConn) send(id string, resp *graphql.Response) bool {
	if len(resp.Errors) > 0 && (len(resp.Data) == 0 || string(resp.Data) == "null") {
		c.forget(id)
		payload, _ := json.Marshal(resp.Errors)
		if c.legacy {
			payload, _ = json.Marshal(resp)
		}
		_ = c.write(wsMessage{ID: id, Type: msgError, Payload: payload})
		return false
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("failed to encode response", slog.String("error", err.Error()))
		return false
	}
	typ := msgNext
	if c.legacy {
		typ = msgData
	}
	return c.write(wsMessage{ID: id, Type: typ, Payload: payload}) == nil
}

// finish снимает операцию и сообщает клиенту о ее завершении, если клиент
// сам ее не остановил.
func (c *wsConn) finish(id string) {
	if c.forget(id) {
		_ = c.write(wsMessage{ID: id, Type: msgComplete})
	}
}

func (c *wsConn) stop(id string) {
	c.forget(id)
}

func (c *wsConn) forget(id string) bool {
	c.mu.Lock()
	cancel, ok := c.ops[id]
	delete(c.ops, id)
	c.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (c *wsConn) isInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

func (c *wsConn) keepAliveLoop(ctx context.Context) {
	if c.keepAlive <= 0 {
		return
	}
	typ := msgPing
	if c.legacy {
		typ = msgKeepAlive
		if err := c.write(wsMessage{Type: typ}); err != nil {
			return
		}
	}

	ticker := time.NewTicker(c.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.write(wsMessage{Type: typ}); err != nil {
				return
			}
		}
	}
}

func (c *wsConn) write(msg wsMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *wsConn) close(code int, text string) {
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
	_ = c.conn.Close()
}

// operationType определяет тип выбранной операции. Документы, которые не
// удалось разобрать, уходят в Subscribe, где graphql-go вернет ошибку.
func operationType(op wsOperation) ast.Operation {
	doc, gqlErr := parser.ParseQuery(&ast.Source{Input: op.Query})
	if gqlErr != nil {
		return ast.Subscription
	}
	def := doc.Operations.ForName(op.OperationName)
	if def == nil {
		return ast.Subscription
	}
	return def.Operation
}
