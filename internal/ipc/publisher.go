package ipc

import (
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Publisher streams step digests to connected peers
type Publisher struct {
	socketPath string
	listener   net.Listener

	// Connected clients
	clients   map[net.Conn]struct{}
	clientsMu sync.RWMutex

	// Digest channel (ring buffer behavior - drop old if full)
	digestCh chan Digest

	// Hello to send to new clients
	hello   Hello
	helloMu sync.RWMutex

	// Stats
	clientCount int32 // atomic
	digestsSent int64 // atomic
	dropped     int64 // atomic

	// Control
	running int32 // atomic
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewPublisher creates a new IPC publisher
func NewPublisher(socketPath string) *Publisher {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}

	return &Publisher{
		socketPath: socketPath,
		clients:    make(map[net.Conn]struct{}),
		digestCh:   make(chan Digest, 1024),
		stopCh:     make(chan struct{}),
	}
}

// SetHello sets the session description sent to new clients
func (p *Publisher) SetHello(h Hello) {
	p.helloMu.Lock()
	p.hello = h
	p.helloMu.Unlock()
}

// Addr returns the address the publisher listens on, once started
func (p *Publisher) Addr() string {
	return GetPlatformAddress(p.socketPath)
}

// Start starts the publisher server
func (p *Publisher) Start() error {
	if !atomic.CompareAndSwapInt32(&p.running, 0, 1) {
		return nil // Already running
	}

	listener, err := CreatePlatformListener(p.socketPath)
	if err != nil {
		atomic.StoreInt32(&p.running, 0)
		return err
	}
	p.listener = listener

	p.wg.Add(2)
	go p.acceptLoop()
	go p.broadcastLoop()

	log.Printf("📡 IPC Publisher started on %s", p.Addr())
	return nil
}

// Stop stops the publisher
func (p *Publisher) Stop() {
	if !atomic.CompareAndSwapInt32(&p.running, 1, 0) {
		return // Not running
	}

	close(p.stopCh)
	if p.listener != nil {
		p.listener.Close()
	}

	p.clientsMu.Lock()
	for conn := range p.clients {
		conn.Close()
	}
	p.clients = make(map[net.Conn]struct{})
	p.clientsMu.Unlock()

	p.wg.Wait()

	CleanupSocket(p.socketPath)
	log.Println("📡 IPC Publisher stopped")
}

// Publish queues a digest for broadcast.
// This is non-blocking - drops the oldest digest if the buffer is full
func (p *Publisher) Publish(d Digest) {
	if atomic.LoadInt32(&p.running) == 0 {
		return
	}

	select {
	case p.digestCh <- d:
	default:
		select {
		case <-p.digestCh:
			atomic.AddInt64(&p.dropped, 1)
		default:
		}
		select {
		case p.digestCh <- d:
		default:
		}
	}
}

// Flush blocks until every queued digest has been written or timeout passes
func (p *Publisher) Flush(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for len(p.digestCh) > 0 {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

// WaitForClients blocks until at least n peers are connected or timeout passes
func (p *Publisher) WaitForClients(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for p.Clients() < n {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
	return true
}

// Clients returns the number of connected peers
func (p *Publisher) Clients() int {
	return int(atomic.LoadInt32(&p.clientCount))
}

// GetStats returns publisher statistics
func (p *Publisher) GetStats() (clients int, sent int64, dropped int64) {
	return int(atomic.LoadInt32(&p.clientCount)),
		atomic.LoadInt64(&p.digestsSent),
		atomic.LoadInt64(&p.dropped)
}

func (p *Publisher) acceptLoop() {
	defer p.wg.Done()

	for atomic.LoadInt32(&p.running) == 1 {
		conn, err := p.listener.Accept()
		if err != nil {
			if atomic.LoadInt32(&p.running) == 0 {
				return // Expected during shutdown
			}
			log.Printf("⚠️ IPC accept error: %v", err)
			continue
		}
		p.addClient(conn)
	}
}

func (p *Publisher) addClient(conn net.Conn) {
	p.helloMu.RLock()
	hello := p.hello
	p.helloMu.RUnlock()

	// Hello goes out before the client can see any digest
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	if err := WriteMessage(conn, MsgTypeHello, hello); err != nil {
		log.Printf("⚠️ Failed to send hello to peer: %v", err)
		conn.Close()
		return
	}

	p.clientsMu.Lock()
	p.clients[conn] = struct{}{}
	p.clientsMu.Unlock()

	count := atomic.AddInt32(&p.clientCount, 1)
	log.Printf("✅ Peer connected (total: %d)", count)
}

func (p *Publisher) removeClient(conn net.Conn) {
	p.clientsMu.Lock()
	if _, ok := p.clients[conn]; !ok {
		p.clientsMu.Unlock()
		return
	}
	delete(p.clients, conn)
	conn.Close()
	p.clientsMu.Unlock()

	count := atomic.AddInt32(&p.clientCount, -1)
	log.Printf("🔌 Peer disconnected (remaining: %d)", count)
}

func (p *Publisher) broadcastLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case d := <-p.digestCh:
			p.broadcast(d)
		}
	}
}

func (p *Publisher) broadcast(d Digest) {
	p.clientsMu.RLock()
	clients := make([]net.Conn, 0, len(p.clients))
	for conn := range p.clients {
		clients = append(clients, conn)
	}
	p.clientsMu.RUnlock()

	var failed []net.Conn
	for _, conn := range clients {
		conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
		if err := WriteMessage(conn, MsgTypeDigest, d); err != nil {
			failed = append(failed, conn)
		}
	}
	for _, conn := range failed {
		p.removeClient(conn)
	}

	if len(clients) > 0 && len(failed) < len(clients) {
		atomic.AddInt64(&p.digestsSent, 1)
	}
}
