package session

import (
	"testing"
	"time"
)

func TestLockoutStates(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := Lockout{Cooldown: 500 * time.Millisecond}
	if l.State(now) != Accepting {
		t.Fatal("new lockout should accept")
	}
	l.Trip(now)
	if l.State(now) != Rejecting || l.State(now.Add(499*time.Millisecond)) != Rejecting {
		t.Fatal("expected rejecting within cooldown")
	}
	if got := l.Remaining(now.Add(200 * time.Millisecond)); got != 300*time.Millisecond {
		t.Fatalf("remaining = %v", got)
	}
	if l.State(now.Add(500*time.Millisecond)) != Accepting {
		t.Fatal("expected accepting after cooldown")
	}
	l.Trip(now)
	l.Clear()
	if l.State(now) != Accepting {
		t.Fatal("clear should accept")
	}
}

func TestLockoutWithoutCooldown(t *testing.T) {
	now := time.Now()
	var l Lockout
	l.Trip(now)
	if l.State(now) != Accepting {
		t.Fatal("zero cooldown never rejects")
	}
}

func TestTickDown(t *testing.T) {
	cases := map[int]int{30: 29, 1: 0, 0: 0, -3: 0}
	for in, want := range cases {
		if got := TickDown(in); got != want {
			t.Fatalf("TickDown(%d) = %d, want %d", in, got, want)
		}
	}
}
