package ports

import (
	"testing"

	"github.com/sagekernel/sagekernel/internal/domain"
)

func TestManager_PutDeliversToInputHandler(t *testing.T) {
	m := NewManager()
	var received any
	in := m.AddInput("in", domain.BufferDiscardOnDisconnect, func(data any) bool {
		received = data
		return true
	})

	ok, err := m.Put(in, 42)
	if err != nil || !ok {
		t.Fatalf("Put = %v, %v, want true, nil", ok, err)
	}
	if received != 42 {
		t.Fatalf("received = %v, want 42", received)
	}
}

func TestManager_PutRejectedFiresDataRejected(t *testing.T) {
	m := NewManager()
	in := m.AddInput("in", domain.BufferDiscardOnDisconnect, func(data any) bool { return false })

	var events []PortEvent
	m.Subscribe(func(event PortEvent, port domain.PortID) { events = append(events, event) })

	ok, err := m.Put(in, 1)
	if err != nil || ok {
		t.Fatalf("Put = %v, %v, want false, nil", ok, err)
	}
	found := false
	for _, e := range events {
		if e == PortDataRejected {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a PortDataRejected event")
	}
}

func TestManager_TakeDrawsFromOutputHandler(t *testing.T) {
	m := NewManager()
	queue := []any{"a", "b"}
	out := m.AddOutput("out", domain.BufferDiscardOnDisconnect, func(selector any) (any, bool) {
		if len(queue) == 0 {
			return nil, false
		}
		v := queue[0]
		queue = queue[1:]
		return v, true
	}, nil)

	v, ok, err := m.Take(out, nil)
	if err != nil || !ok || v != "a" {
		t.Fatalf("Take = %v, %v, %v, want a, true, nil", v, ok, err)
	}
	v, ok, _ = m.Take(out, nil)
	if v != "b" || !ok {
		t.Fatalf("second Take = %v, %v, want b, true", v, ok)
	}
	_, ok, _ = m.Take(out, nil)
	if ok {
		t.Fatal("Take on an exhausted port should fail")
	}
}

func TestManager_PeekDoesNotConsume(t *testing.T) {
	m := NewManager()
	queue := []any{"a"}
	out := m.AddOutput("out", domain.BufferDiscardOnDisconnect,
		func(selector any) (any, bool) {
			if len(queue) == 0 {
				return nil, false
			}
			v := queue[0]
			queue = queue[1:]
			return v, true
		},
		func(selector any) (any, bool) {
			if len(queue) == 0 {
				return nil, false
			}
			return queue[0], true
		})

	v, ok := m.Peek(out, nil)
	if !ok || v != "a" {
		t.Fatalf("Peek = %v, %v, want a, true", v, ok)
	}
	// Peek must not have consumed the item.
	v, ok, _ = m.Take(out, nil)
	if !ok || v != "a" {
		t.Fatalf("Take after Peek = %v, %v, want a, true", v, ok)
	}
}

func TestManager_ConnectRejectsAlreadyAttachedPort(t *testing.T) {
	m := NewManager()
	out := m.AddOutput("out", domain.BufferDiscardOnDisconnect, func(any) (any, bool) { return nil, false }, nil)
	in1 := m.AddInput("in1", domain.BufferDiscardOnDisconnect, func(any) bool { return true })
	in2 := m.AddInput("in2", domain.BufferDiscardOnDisconnect, func(any) bool { return true })

	if _, err := m.Connect(out, in1); err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	if _, err := m.Connect(out, in2); err != domain.ErrConnectorOccupied {
		t.Fatalf("second Connect err = %v, want ErrConnectorOccupied", err)
	}
}

func TestManager_DisconnectDiscardsBufferOnDiscardPolicy(t *testing.T) {
	m := NewManager()
	out := m.AddOutput("out", domain.BufferDiscardOnDisconnect, func(any) (any, bool) { return nil, false }, nil)
	in := m.AddInput("in", domain.BufferDiscardOnDisconnect, func(any) bool { return true })
	m.Connect(out, in)

	m.entries[out].port.Buffer = []any{"leftover"}
	m.Disconnect(out)

	after, _ := m.Port(out)
	if after.HasAttached {
		t.Fatal("port should no longer report an attached connector")
	}
	if after.Buffer != nil {
		t.Fatalf("Buffer = %v, want nil after disconnect under BufferDiscardOnDisconnect", after.Buffer)
	}
}
