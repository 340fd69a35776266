package player

import (
	"io"
	"sync"
	"testing"
	"time"
)

type countingConn struct {
	active  int
	maxSeen int
	mu      sync.Mutex
}

func (c *countingConn) WriteMessage(int, []byte) error {
	c.mu.Lock()
	c.active++
	if c.active > c.maxSeen {
		c.maxSeen = c.active
	}
	c.mu.Unlock()

	time.Sleep(time.Millisecond)

	c.mu.Lock()
	c.active--
	c.mu.Unlock()
	return nil
}

func (c *countingConn) ReadMessage() (int, []byte, error) { return 0, nil, io.EOF }
func (c *countingConn) Close() error                      { return nil }

func TestLockedConnSerializesWrites(t *testing.T) {
	inner := &countingConn{}
	conn := NewLockedConn(inner)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn.WriteMessage(1, nil)
		}()
	}
	wg.Wait()

	if inner.maxSeen != 1 {
		t.Errorf("concurrent writers got = %d, want 1", inner.maxSeen)
	}
}

func TestMarkDisconnected(t *testing.T) {
	p := NewPlayer("p1", nil)
	if p.Status != StatusConnected {
		t.Fatalf("NewPlayer() status got = %v, want %v", p.Status, StatusConnected)
	}
	before := p.LastSeen
	time.Sleep(time.Millisecond)
	p.MarkDisconnected()
	if p.Status != StatusDisconnected {
		t.Errorf("MarkDisconnected() status got = %v, want %v", p.Status, StatusDisconnected)
	}
	if !p.LastSeen.After(before) {
		t.Errorf("MarkDisconnected() did not advance LastSeen")
	}
}
