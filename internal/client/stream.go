package client

import (
	"context"
	"sync"

	"github.com/UkralStul/x-clone-service/api"
	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/gorilla/websocket"
)

// Stream - живая выборка постов. Потребитель видит только последний снимок.
type Stream struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	ch     chan []*domain.Post
	done   chan struct{}
	err    error
}

func newStream(ctx context.Context, conn *websocket.Conn) *Stream {
	s := &Stream{
		conn: conn,
		ch:   make(chan []*domain.Post, 1),
		done: make(chan struct{}),
	}
	go s.read()
	go func() {
		select {
		case <-ctx.Done():
			s.Cancel()
		case <-s.done:
		}
	}()
	return s
}

// C возвращает канал снимков; закрывается после Cancel или обрыва соединения.
func (s *Stream) C() <-chan []*domain.Post { return s.ch }

// Err возвращает причину обрыва соединения, если поток закрылся сам.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel синхронно закрывает поток: после возврата снимки не доставляются.
func (s *Stream) Cancel() {
	s.close(nil)
}

func (s *Stream) read() {
	for {
		var msg api.Snapshot
		if err := s.conn.ReadJSON(&msg); err != nil {
			s.close(err)
			return
		}
		if msg.Type != api.MessageSnapshot {
			continue
		}
		s.deliver(msg.Posts)
	}
}

func (s *Stream) deliver(posts []*domain.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- posts
}

func (s *Stream) close(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = err
	select {
	case <-s.ch:
	default:
	}
	close(s.ch)
	close(s.done)
	s.mu.Unlock()

	_ = s.conn.Close()
}
