package calls

import "testing"

func TestStatusLive(t *testing.T) {
	live := map[Status]bool{
		StatusIdle:           false,
		StatusRinging:        true,
		StatusActive:         true,
		StatusPaywallPending: true,
		StatusEnded:          false,
	}
	for s, want := range live {
		if got := s.Live(); got != want {
			t.Fatalf("%s: expected live=%v, got %v", s, want, got)
		}
	}
}

func TestSessionClone_CopiesMediaPool(t *testing.T) {
	s := &Session{ID: "s", MediaPool: []string{"a", "b"}}
	c := s.clone()
	c.MediaPool[0] = "z"
	if s.MediaPool[0] != "a" {
		t.Fatalf("clone shares media pool backing array")
	}
	if (*Session)(nil).clone() != nil {
		t.Fatalf("expected nil clone of nil session")
	}
}
