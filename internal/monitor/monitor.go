// Package monitor adapts the screen-capture service. It enumerates displays
// and captures full-monitor or sub-region frames as RGBA buffers.
package monitor

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// ErrMonitorNotFound reports that no display matched the selection criterion.
var ErrMonitorNotFound = errors.New("monitor not found")

// Monitor describes a single attached display.
type Monitor struct {
	Index   int
	Name    string
	Bounds  image.Rectangle
	Primary bool
}

// All enumerates the attached displays. The display whose bounds start at the
// virtual-screen origin is reported as primary; when none does, display 0 is.
func All() []Monitor {
	n := screenshot.NumActiveDisplays()
	monitors := make([]Monitor, 0, n)

	primarySeen := false
	for i := 0; i < n; i++ {
		bounds := screenshot.GetDisplayBounds(i)
		primary := bounds.Min.X == 0 && bounds.Min.Y == 0
		if primary {
			primarySeen = true
		}
		monitors = append(monitors, Monitor{
			Index:   i,
			Name:    fmt.Sprintf("display-%d", i),
			Bounds:  bounds,
			Primary: primary,
		})
	}

	if !primarySeen && len(monitors) > 0 {
		monitors[0].Primary = true
	}
	return monitors
}

// Select picks a monitor by name, or the primary one when name is empty.
func Select(name string) (Monitor, error) {
	return selectFrom(name, All())
}

// selectFrom is the selection policy, split out so it can be exercised
// without a display attached.
func selectFrom(name string, monitors []Monitor) (Monitor, error) {
	if name != "" {
		for _, m := range monitors {
			if m.Name == name {
				return m, nil
			}
		}
		return Monitor{}, fmt.Errorf("%w: %q", ErrMonitorNotFound, name)
	}

	for _, m := range monitors {
		if m.Primary {
			return m, nil
		}
	}
	return Monitor{}, ErrMonitorNotFound
}

// CaptureFull grabs the entire monitor as an RGBA frame.
func (m Monitor) CaptureFull() (*image.RGBA, error) {
	img, err := screenshot.CaptureRect(m.Bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen: %w", err)
	}
	return img, nil
}

// CaptureRegion grabs a sub-rectangle of the monitor. Coordinates are
// relative to the monitor's own top-left corner, matching the board region
// located on a full-monitor capture.
func (m Monitor) CaptureRegion(x, y, w, h int) (*image.RGBA, error) {
	rect := image.Rect(
		m.Bounds.Min.X+x,
		m.Bounds.Min.Y+y,
		m.Bounds.Min.X+x+w,
		m.Bounds.Min.Y+y+h,
	)
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, fmt.Errorf("failed to capture region %v: %w", rect, err)
	}
	return img, nil
}
