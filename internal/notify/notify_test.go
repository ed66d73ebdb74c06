package notify

import "testing"

func TestSendRejectsUnknownScheme(t *testing.T) {
	if err := Send("bogus://nowhere", "hello"); err == nil {
		t.Fatalf("expected error for unknown service scheme")
	}
}

func TestSendRejectsEmptyURL(t *testing.T) {
	if err := Send("", "hello"); err == nil {
		t.Fatalf("expected error for empty URL")
	}
}
