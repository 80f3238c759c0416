package session

import (
	"testing"

	"github.com/google/uuid"
)

func TestPendingSessionSendThenReceive(t *testing.T) {
	p := NewPendingSession()
	want := Session{ControllerID: uuid.New(), SharedSecret: [SharedSecretSize]byte{9}}
	p.Send(want)

	got, ok := <-p.Receiver()
	if !ok {
		t.Fatal("Receiver() closed without delivering")
	}
	if got.ControllerID != want.ControllerID || got.SharedSecret != want.SharedSecret {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if _, ok := <-p.Receiver(); ok {
		t.Fatal("Receiver() yielded a second value after Send")
	}
}

func TestPendingSessionCloseWithoutSend(t *testing.T) {
	p := NewPendingSession()
	p.Close()

	if _, ok := <-p.Receiver(); ok {
		t.Fatal("Receiver() yielded a value after Close without Send")
	}
}

func TestPendingSessionSendTwicePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("second Send did not panic")
		}
	}()

	p := NewPendingSession()
	p.Send(Session{})
	p.Send(Session{})
}
