package graph

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
)

// DefaultInitTimeout - сколько ждать connection_init по умолчанию.
const DefaultInitTimeout = 15 * time.Second

// ServerOptions настраивает транспорт /query.
type ServerOptions struct {
	// KeepAlive - интервал ping/ka сообщений. Ноль отключает их.
	KeepAlive time.Duration
	// InitTimeout - сколько ждать connection_init. Ноль отключает ожидание.
	InitTimeout time.Duration
	// HTTPMiddleware оборачивает только HTTP POST обработчик, например
	// для лоадеров, которые живут один запрос.
	HTTPMiddleware func(http.Handler) http.Handler
	Logger         *slog.Logger
}

// Server обслуживает GraphQL-запросы: POST с JSON-телом и WebSocket для подписок.
type Server struct {
	schema   *graphql.Schema
	http     http.Handler
	upgrader websocket.Upgrader
	opts     ServerOptions
}

func NewServer(schema *graphql.Schema, opts ServerOptions) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	var h http.Handler = &relay.Handler{Schema: schema}
	if opts.HTTPMiddleware != nil {
		h = opts.HTTPMiddleware(h)
	}
	return &Server{
		schema: schema,
		http:   h,
		upgrader: websocket.Upgrader{
			CheckOrigin:  func(r *http.Request) bool { return true },
			Subprotocols: []string{protocolTransportWS, protocolLegacyWS},
		},
		opts: opts,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.serveWebsocket(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "only POST and WebSocket requests are supported", http.StatusMethodNotAllowed)
		return
	}
	s.http.ServeHTTP(w, r)
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту ошибкой.
		s.opts.Logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	// Дедлайны http.Server не должны действовать на долгоживущее соединение.
	_ = conn.SetReadDeadline(time.Time{})

	c := &wsConn{
		conn:        conn,
		schema:      s.schema,
		legacy:      conn.Subprotocol() != protocolTransportWS,
		keepAlive:   s.opts.KeepAlive,
		initTimeout: s.opts.InitTimeout,
		logger:      s.opts.Logger,
		ops:         make(map[string]context.CancelFunc),
	}
	c.run(r.Context())
}
