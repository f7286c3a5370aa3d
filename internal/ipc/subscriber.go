package ipc

import (
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Subscriber receives step digests from a publisher
type Subscriber struct {
	socketPath string
	conn       net.Conn
	connMu     sync.Mutex

	// Latest digest (lock-free access)
	latest atomic.Pointer[Digest]

	helloCh chan Hello

	// Stats
	received   int64 // atomic
	reconnects int64 // atomic
	errors     int64 // atomic

	// Control
	running int32 // atomic
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// Callbacks, called from the read goroutine
	onDigest     func(Digest)
	onHello      func(Hello)
	onDisconnect func()
}

// NewSubscriber creates a new IPC subscriber
func NewSubscriber(socketPath string) *Subscriber {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}

	return &Subscriber{
		socketPath: socketPath,
		helloCh:    make(chan Hello, 1),
		stopCh:     make(chan struct{}),
	}
}

// OnDigest sets a callback for every received digest
func (s *Subscriber) OnDigest(fn func(Digest)) { s.onDigest = fn }

// OnHello sets a callback for the session hello
func (s *Subscriber) OnHello(fn func(Hello)) { s.onHello = fn }

// OnDisconnect sets a callback for when the connection is lost
func (s *Subscriber) OnDisconnect(fn func()) { s.onDisconnect = fn }

// Start connects to the publisher in the background, reconnecting on loss
func (s *Subscriber) Start() error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return nil // Already running
	}

	s.wg.Add(1)
	go s.connectionLoop()

	log.Printf("📡 IPC Subscriber started, connecting to %s", GetPlatformAddress(s.socketPath))
	return nil
}

// Stop stops the subscriber
func (s *Subscriber) Stop() {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return // Not running
	}

	close(s.stopCh)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	log.Println("📡 IPC Subscriber stopped")
}

// Latest returns the most recent digest, if any
func (s *Subscriber) Latest() (Digest, bool) {
	if d := s.latest.Load(); d != nil {
		return *d, true
	}
	return Digest{}, false
}

// WaitForHello blocks until the session hello arrives or timeout passes
func (s *Subscriber) WaitForHello(timeout time.Duration) (Hello, bool) {
	select {
	case h := <-s.helloCh:
		return h, true
	case <-time.After(timeout):
		return Hello{}, false
	case <-s.stopCh:
		return Hello{}, false
	}
}

// GetStats returns subscriber statistics
func (s *Subscriber) GetStats() (received int64, reconnects int64, errors int64) {
	return atomic.LoadInt64(&s.received),
		atomic.LoadInt64(&s.reconnects),
		atomic.LoadInt64(&s.errors)
}

// IsConnected returns whether the subscriber is connected
func (s *Subscriber) IsConnected() bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.conn != nil
}

func (s *Subscriber) connectionLoop() {
	defer s.wg.Done()

	for atomic.LoadInt32(&s.running) == 1 {
		conn, err := ConnectPlatform(s.socketPath)
		if err != nil {
			select {
			case <-s.stopCh:
				return
			case <-time.After(ReconnectDelay):
				continue
			}
		}

		s.connMu.Lock()
		s.conn = conn
		s.connMu.Unlock()
		log.Printf("✅ Connected to publisher at %s", GetPlatformAddress(s.socketPath))

		s.readLoop(conn)

		s.connMu.Lock()
		s.conn = nil
		s.connMu.Unlock()
		conn.Close()

		if s.onDisconnect != nil {
			s.onDisconnect()
		}
		atomic.AddInt64(&s.reconnects, 1)

		select {
		case <-s.stopCh:
			return
		case <-time.After(ReconnectDelay):
		}
	}
}

func (s *Subscriber) readLoop(conn net.Conn) {
	for atomic.LoadInt32(&s.running) == 1 {
		conn.SetReadDeadline(time.Now().Add(ReadTimeout))

		msgType, data, err := ReadMessage(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Println("🔌 Publisher closed connection")
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				// Timeout is normal, continue
				continue
			}
			if atomic.LoadInt32(&s.running) == 1 {
				log.Printf("⚠️ IPC read error: %v", err)
				atomic.AddInt64(&s.errors, 1)
			}
			return
		}

		switch msgType {
		case MsgTypeDigest:
			s.handleDigest(data)
		case MsgTypeHello:
			s.handleHello(data)
		case MsgTypePing:
			conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			WriteMessage(conn, MsgTypePong, nil)
		}
	}
}

func (s *Subscriber) handleDigest(data []byte) {
	d, err := DecodeDigest(data)
	if err != nil {
		log.Printf("⚠️ Failed to decode digest: %v", err)
		atomic.AddInt64(&s.errors, 1)
		return
	}

	s.latest.Store(&d)
	atomic.AddInt64(&s.received, 1)
	if s.onDigest != nil {
		s.onDigest(d)
	}
}

func (s *Subscriber) handleHello(data []byte) {
	h, err := DecodeHello(data)
	if err != nil {
		log.Printf("⚠️ Failed to decode hello: %v", err)
		atomic.AddInt64(&s.errors, 1)
		return
	}

	log.Printf("📺 Session: seed %d @ %d steps/s (%s)", h.WorldSeed, h.StepsPerSecond, h.Scenario)
	select {
	case s.helloCh <- h:
	default:
	}
	if s.onHello != nil {
		s.onHello(h)
	}
}
