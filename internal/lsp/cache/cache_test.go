package cache

import (
	"sync"
	"testing"

	"github.com/usbdm-community/pinmux-tools/internal/builder"
)

const uri = "file:///work/MK20D5.csv"

func TestUpdate(t *testing.T) {
	s := NewSession("test", builder.Options{})
	snap := s.Update(uri, 1, "Title\nPin,PTA3,,PTA3,FTM0_CH6\nAlias,D1,PTA3\n")
	if snap.Err != nil || snap.Model == nil {
		t.Fatalf("Unexpected snapshot %+v", snap)
	}
	if snap.Model.Device != "MK20D5" {
		t.Errorf("Device should come from the path, got %q", snap.Model.Device)
	}
	if _, ok := snap.Model.Pins.Lookup("PTA3"); !ok {
		t.Errorf("PTA3 not indexed")
	}

	got, ok := s.Snapshot(uri)
	if !ok || got != snap {
		t.Errorf("Snapshot did not return the latest version")
	}
}

func TestUpdateKeepsNewest(t *testing.T) {
	s := NewSession("test", builder.Options{})
	s.Update(uri, 3, "Title\nPin,PTA3,,PTA3\n")
	stale := s.Update(uri, 2, "Title\nPin,PTB3,,PTB3\n")
	if stale.Version != 3 {
		t.Errorf("Stale update replaced version 3")
	}
	if _, ok := stale.Model.Pins.Lookup("PTB3"); ok {
		t.Errorf("Stale content leaked into the snapshot")
	}
}

func TestSyntaxErrorsKept(t *testing.T) {
	s := NewSession("test", builder.Options{})
	snap := s.Update(uri, 1, "Title\nPin,\"PTA3\"x,PTA3\nPin,PTA4,,PTA4\n")
	if len(snap.SyntaxErrors) != 1 {
		t.Fatalf("Expected 1 syntax error, got %v", snap.SyntaxErrors)
	}
	if _, ok := snap.Model.Pins.Lookup("PTA4"); !ok {
		t.Errorf("Rows after the bad one should still be indexed")
	}
}

func TestClose(t *testing.T) {
	s := NewSession("test", builder.Options{})
	s.Update(uri, 1, "Title\n")
	s.Update("file:///work/other.csv", 1, "Title\n")
	s.Close(uri)
	if _, ok := s.Snapshot(uri); ok {
		t.Errorf("Closed document still cached")
	}
	if len(s.URIs()) != 1 {
		t.Errorf("Expected one open document, got %v", s.URIs())
	}
}

func TestConcurrentUpdates(t *testing.T) {
	s := NewSession("test", builder.Options{})
	var wg sync.WaitGroup
	for v := 1; v <= 16; v++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			s.Update(uri, v, "Title\nPin,PTA3,,PTA3\n")
		}(v)
	}
	wg.Wait()
	snap, _ := s.Snapshot(uri)
	if snap.Version != 16 {
		t.Errorf("Expected newest version 16, got %d", snap.Version)
	}
}
