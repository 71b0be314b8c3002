package monitor

import (
	"errors"
	"image"
	"testing"
)

func fixtureMonitors() []Monitor {
	return []Monitor{
		{Index: 0, Name: "display-0", Bounds: image.Rect(0, 0, 1920, 1080), Primary: true},
		{Index: 1, Name: "display-1", Bounds: image.Rect(1920, 0, 3840, 1080)},
		{Index: 2, Name: "display-2", Bounds: image.Rect(-1280, 0, 0, 1024)},
	}
}

func TestSelectByName(t *testing.T) {
	m, err := selectFrom("display-1", fixtureMonitors())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Index != 1 {
		t.Errorf("expected display-1, got %s", m.Name)
	}
}

func TestSelectPrimaryByDefault(t *testing.T) {
	m, err := selectFrom("", fixtureMonitors())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Primary || m.Index != 0 {
		t.Errorf("expected primary display-0, got %s", m.Name)
	}
}

func TestSelectUnknownName(t *testing.T) {
	_, err := selectFrom("display-9", fixtureMonitors())
	if !errors.Is(err, ErrMonitorNotFound) {
		t.Errorf("expected ErrMonitorNotFound, got %v", err)
	}
}

func TestSelectNoPrimary(t *testing.T) {
	monitors := []Monitor{
		{Index: 0, Name: "display-0", Bounds: image.Rect(100, 100, 900, 700)},
	}
	_, err := selectFrom("", monitors)
	if !errors.Is(err, ErrMonitorNotFound) {
		t.Errorf("expected ErrMonitorNotFound, got %v", err)
	}
}
