// Package server implements the TCP transport: one goroutine per
// accepted connection reads newline-delimited JSON directive frames and
// publishes them onto a shared queue; trade notifications are routed
// back to the connection belonging to the participant on that side of
// the trade, not broadcast to every connection (grounded on
// original_source/src/server/tcp.rs's ClientRecord/ClientId mapping).
package server

import (
	"bufio"
	"net"
	"sync"

	"go.uber.org/zap"

	"vmxexchange/directives"
	"vmxexchange/domain"
	"vmxexchange/engine"
	"vmxexchange/protocol"
)

// Server accepts connections, assigns each one a ParticipantId, and
// keeps the mapping needed to route outgoing trade notifications.
type Server struct {
	listener net.Listener
	queue    *directives.Queue
	log      *zap.SugaredLogger

	mu          sync.RWMutex
	connections map[domain.ParticipantId]net.Conn
	nextID      uint64
}

// New wraps an already-bound listener. Use Listen for the common case of
// binding a new address.
func New(listener net.Listener, queue *directives.Queue, log *zap.SugaredLogger) *Server {
	return &Server{
		listener:    listener,
		queue:       queue,
		log:         log,
		connections: make(map[domain.ParticipantId]net.Conn),
	}
}

// Listen binds addr and returns a Server ready to Serve.
func Listen(addr string, queue *directives.Queue, log *zap.SugaredLogger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return New(listener, queue, log), nil
}

// Addr returns the bound local address, useful when addr was "host:0".
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until the listener is closed, spawning one
// reader goroutine per connection. It returns once Close is called.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		participant := s.register(conn)
		go s.handleConnection(participant, conn)
	}
}

// Close stops accepting new connections. Existing connections are left
// to their reader goroutines to notice and close.
func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) register(conn net.Conn) domain.ParticipantId {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	participant := domain.ParticipantId(s.nextID)
	s.connections[participant] = conn
	return participant
}

func (s *Server) unregister(participant domain.ParticipantId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.connections, participant)
}

func (s *Server) handleConnection(participant domain.ParticipantId, conn net.Conn) {
	defer conn.Close()
	defer s.unregister(participant)

	s.log.Infow("connection accepted", "participant", participant, "remote", conn.RemoteAddr())
	s.queue.Publish(directives.Entry{Participant: participant, Directive: engine.Join{}})

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		frame := scanner.Bytes()
		if len(frame) == 0 {
			continue
		}
		directive, err := protocol.DecodeDirective(frame)
		if err != nil {
			s.log.Warnw("dropping malformed directive frame", "participant", participant, "error", err)
			continue
		}
		s.queue.Publish(directives.Entry{Participant: participant, Directive: directive})
	}
	if err := scanner.Err(); err != nil {
		s.log.Infow("connection read error", "participant", participant, "error", err)
	} else {
		s.log.Infow("connection closed", "participant", participant)
	}
}

// Notify routes trade to the connection belonging to participant, if
// still connected. A participant that has since disconnected simply
// misses the notification; there is no per-directive delivery guarantee
// (§7: transport failures are out of core).
func (s *Server) Notify(participant domain.ParticipantId, trade domain.Trade) {
	s.mu.RLock()
	conn, ok := s.connections[participant]
	s.mu.RUnlock()
	if !ok {
		return
	}
	frame, err := protocol.EncodeTrade(trade)
	if err != nil {
		s.log.Errorw("failed to encode trade notification", "error", err)
		return
	}
	if _, err := conn.Write(frame); err != nil {
		s.log.Warnw("failed to write trade notification", "participant", participant, "error", err)
	}
}
