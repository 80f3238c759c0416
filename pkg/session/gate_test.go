package session

import (
	"testing"

	"github.com/google/uuid"
)

func TestGateStartsInPassthrough(t *testing.T) {
	g := NewGate(NewPendingSession())
	if g.Mode() != ModePassthrough {
		t.Fatalf("Mode() = %v, want ModePassthrough", g.Mode())
	}
	if _, ok := g.Keys(); ok {
		t.Fatal("Keys() ok before adoption")
	}
}

func TestGateTryAdoptLatchesEncrypted(t *testing.T) {
	pending := NewPendingSession()
	g := NewGate(pending)

	adopted, err := g.TryAdopt()
	if err != nil {
		t.Fatalf("TryAdopt: %v", err)
	}
	if adopted {
		t.Fatal("TryAdopt adopted before delivery")
	}
	if g.Mode() != ModePassthrough {
		t.Fatal("Mode changed before delivery")
	}

	wantID := uuid.New()
	pending.Send(Session{ControllerID: wantID, SharedSecret: [SharedSecretSize]byte{1, 2, 3}})

	adopted, err = g.TryAdopt()
	if err != nil {
		t.Fatalf("TryAdopt: %v", err)
	}
	if !adopted {
		t.Fatal("TryAdopt did not adopt after delivery")
	}
	if g.Mode() != ModeEncrypted {
		t.Fatalf("Mode() = %v, want ModeEncrypted", g.Mode())
	}

	gotID, ok := g.ControllerID()
	if !ok || gotID != wantID {
		t.Fatalf("ControllerID() = (%v, %v), want (%v, true)", gotID, ok, wantID)
	}

	keys, ok := g.Keys()
	if !ok {
		t.Fatal("Keys() not ok after adoption")
	}
	if keys.AccessoryWriteKey == keys.AccessoryReadKey {
		t.Fatal("write and read keys must differ")
	}

	// Idempotent: a second adoption attempt is a no-op, not an error.
	adopted, err = g.TryAdopt()
	if err != nil || adopted {
		t.Fatalf("second TryAdopt = (%v, %v), want (false, nil)", adopted, err)
	}
}

func TestGateStaysPassthroughWhenChannelClosedWithoutSession(t *testing.T) {
	pending := NewPendingSession()
	pending.Close()

	g := NewGate(pending)
	adopted, err := g.TryAdopt()
	if err != nil {
		t.Fatalf("TryAdopt: %v", err)
	}
	if adopted {
		t.Fatal("TryAdopt reported adoption on a closed-without-session channel")
	}
	if g.Mode() != ModePassthrough {
		t.Fatal("Mode must remain Passthrough permanently")
	}
}
