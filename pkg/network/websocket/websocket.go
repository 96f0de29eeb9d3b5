package websocket

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/logger"
)

const (
	maxMessageSize = 64 * 1024
	pongTime       = 60 * time.Second
	pingTime       = pongTime * 9 / 10
	writeWait      = 10 * time.Second
	sendBuffer     = 64
)

type Options struct {
	MaxMessageSize int64
	SendBuffer     int
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
}

func (o *Options) defaults() {
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = maxMessageSize
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = sendBuffer
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = pongTime
	}
	if o.PingInterval <= 0 || o.PingInterval >= o.PongTimeout {
		o.PingInterval = o.PongTimeout * 9 / 10
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = writeWait
	}
}

type WS struct {
	conn deadlinedConn
	send chan []byte
	opts Options

	// OnMessage is called from the reader goroutine for each message.
	OnMessage func(message []byte)

	pingPong bool
	closed   chan struct{}
	once     sync.Once
	done     chan struct{}
	log      *logger.Logger
}

var DefaultUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	WriteBufferPool: &sync.Pool{},
}

// NewUpgrader makes an upgrader which accepts only the given origin,
// any origin is accepted when it's empty.
func NewUpgrader(origin string) *websocket.Upgrader {
	u := DefaultUpgrader
	if origin == "" {
		u.CheckOrigin = func(*http.Request) bool { return true }
		return &u
	}
	u.CheckOrigin = func(r *http.Request) bool { return r.Header.Get("Origin") == origin }
	return &u
}

// NewServer wraps an upgraded server connection.
// Server sockets ping the remote side and expect pongs back.
func NewServer(conn *websocket.Conn, opts Options, log *logger.Logger) *WS {
	return newSocket(conn, opts, true, log)
}

func NewClient(address url.URL, opts Options, log *logger.Logger) (*WS, error) {
	conn, _, err := websocket.DefaultDialer.Dial(address.String(), nil)
	if err != nil {
		return nil, err
	}
	return newSocket(conn, opts, false, log), nil
}

func newSocket(conn *websocket.Conn, opts Options, pingPong bool, log *logger.Logger) *WS {
	opts.defaults()
	if log == nil {
		log = logger.Default()
	}
	return &WS{
		conn:      deadlinedConn{sock: conn, wt: opts.WriteTimeout},
		send:      make(chan []byte, opts.SendBuffer),
		opts:      opts,
		OnMessage: func([]byte) {},
		pingPong:  pingPong,
		closed:    make(chan struct{}),
		done:      make(chan struct{}),
		log:       log,
	}
}

// Listen starts the socket pumps.
// The returned channel is closed when both of them have stopped.
func (ws *WS) Listen() <-chan struct{} {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); ws.reader() }()
	go func() { defer wg.Done(); ws.writer() }()
	go func() { wg.Wait(); close(ws.done) }()
	return ws.done
}

// Write queues the message without blocking.
// It returns false if the send buffer is full or the socket is closed.
func (ws *WS) Write(data []byte) bool {
	select {
	case <-ws.closed:
		return false
	default:
	}
	select {
	case ws.send <- data:
		return true
	default:
		return false
	}
}

// Close stops the socket, it is safe to call many times.
func (ws *WS) Close() { ws.once.Do(func() { close(ws.closed) }) }

func (ws *WS) Done() <-chan struct{} { return ws.done }

func (ws *WS) IsClosed() bool {
	select {
	case <-ws.closed:
		return true
	default:
		return false
	}
}

// reader pumps messages from the websocket connection to the OnMessage callback.
// Blocking, must be called as goroutine. Serializes all websocket reads.
func (ws *WS) reader() {
	defer ws.Close()
	ws.conn.setup(func(conn *websocket.Conn) {
		conn.SetReadLimit(ws.opts.MaxMessageSize)
		if ws.pingPong {
			_ = conn.SetReadDeadline(time.Now().Add(ws.opts.PongTimeout))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(ws.opts.PongTimeout))
			})
		}
	})
	for {
		message, err := ws.conn.read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.log.Warn().Err(err).Msg("ws read")
			}
			return
		}
		ws.OnMessage(message)
	}
}

// writer pumps messages from the send channel to the websocket connection.
// Blocking, must be called as goroutine. Serializes all websocket writes.
func (ws *WS) writer() {
	var tick <-chan time.Time
	if ws.pingPong {
		ticker := time.NewTicker(ws.opts.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer func() {
		ws.Close()
		_ = ws.conn.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = ws.conn.close()
	}()
	for {
		select {
		case <-ws.closed:
			return
		case message := <-ws.send:
			if err := ws.conn.write(websocket.TextMessage, message); err != nil {
				ws.log.Debug().Err(err).Msg("ws write")
				return
			}
		case <-tick:
			if err := ws.conn.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type deadlinedConn struct {
	sock *websocket.Conn
	wt   time.Duration
}

func (conn *deadlinedConn) setup(fn func(conn *websocket.Conn)) { fn(conn.sock) }

func (conn *deadlinedConn) close() error { return conn.sock.Close() }

func (conn *deadlinedConn) read() (message []byte, err error) {
	_, message, err = conn.sock.ReadMessage()
	return
}

func (conn *deadlinedConn) write(t int, mess []byte) error {
	if err := conn.sock.SetWriteDeadline(time.Now().Add(conn.wt)); err != nil {
		return err
	}
	return conn.sock.WriteMessage(t, mess)
}
