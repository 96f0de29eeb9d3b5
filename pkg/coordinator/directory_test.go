package coordinator

import (
	"errors"
	"testing"
	"time"
)

func TestDirectory(t *testing.T) {
	d := NewDirectory()
	now := time.Now()

	if err := d.Create("ruby", "h1", now); err != nil {
		t.Fatal(err)
	}
	if err := d.Create("ruby", "h2", now); !errors.Is(err, ErrSessionIdInUse) {
		t.Errorf("expected in use, got %v", err)
	}
	if host, err := d.Lookup("ruby"); err != nil || host != "h1" {
		t.Errorf("lookup %v %v", host, err)
	}
	if _, err := d.Lookup("opal"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if ids := d.Ids(); len(ids) != 1 || ids[0] != "ruby" {
		t.Errorf("ids %v", ids)
	}

	d.Destroy("ruby")
	d.Destroy("ruby")
	if d.Has("ruby") || d.Len() != 0 {
		t.Errorf("ruby should be gone")
	}
}
