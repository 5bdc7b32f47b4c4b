package disc

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pilebones/go-udev/netlink"
)

func TestBuildMatcher(t *testing.T) {
	matcher := buildMatcher()

	audioEnv := map[string]string{
		"SUBSYSTEM":         "block",
		"ID_CDROM":          "1",
		"ID_CDROM_MEDIA":    "1",
		"ID_CDROM_MEDIA_CD": "1",
	}
	tests := []struct {
		name  string
		event netlink.UEvent
		want  bool
	}{
		{"change", netlink.UEvent{Action: netlink.CHANGE, Env: audioEnv}, true},
		{"add", netlink.UEvent{Action: netlink.ADD, Env: audioEnv}, true},
		{"remove", netlink.UEvent{Action: netlink.REMOVE, Env: audioEnv}, false},
		{"no media", netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{
			"SUBSYSTEM": "block",
			"ID_CDROM":  "1",
		}}, false},
		{"dvd media", netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{
			"SUBSYSTEM":      "block",
			"ID_CDROM":       "1",
			"ID_CDROM_MEDIA": "1",
		}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matcher.Evaluate(tt.event); got != tt.want {
				t.Fatalf("Evaluate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractDeviceName(t *testing.T) {
	tests := []struct {
		env  map[string]string
		want string
	}{
		{map[string]string{"DEVNAME": "/dev/sr0"}, "/dev/sr0"},
		{map[string]string{"DEVPATH": "/devices/pci0000:00/ata2/block/sr1"}, "/dev/sr1"},
		{map[string]string{}, ""},
	}
	for _, tt := range tests {
		if got := extractDeviceName(netlink.UEvent{Env: tt.env}); got != tt.want {
			t.Fatalf("extractDeviceName(%v) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestHandleEventDispatch(t *testing.T) {
	insertion := func(dev, tracks string) netlink.UEvent {
		return netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{
			"DEVNAME":                          dev,
			"ID_CDROM_MEDIA_TRACK_COUNT_AUDIO": tracks,
		}}
	}

	t.Run("calls handler for configured device", func(t *testing.T) {
		var (
			mu  sync.Mutex
			got []Insertion
		)
		m := NewMonitor("/dev/sr0", nil, func(_ context.Context, ins Insertion) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, ins)
			return nil
		})
		m.handleEvent(context.Background(), insertion("/dev/sr0", "12"))
		m.Wait()

		mu.Lock()
		defer mu.Unlock()
		if len(got) != 1 || got[0].Device != "/dev/sr0" || got[0].AudioTracks != 12 {
			t.Fatalf("unexpected insertions %+v", got)
		}
	})

	t.Run("ignores other devices and data discs", func(t *testing.T) {
		called := false
		m := NewMonitor("/dev/sr0", nil, func(context.Context, Insertion) error {
			called = true
			return nil
		})
		m.handleEvent(context.Background(), insertion("/dev/sr1", "12"))
		m.handleEvent(context.Background(), insertion("/dev/sr0", "0"))
		m.handleEvent(context.Background(), insertion("/dev/sr0", ""))
		m.handleEvent(context.Background(), netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{}})
		m.Wait()
		if called {
			t.Fatal("handler should not run")
		}
	})

	t.Run("empty device accepts any drive", func(t *testing.T) {
		done := make(chan Insertion, 1)
		m := NewMonitor("", nil, func(_ context.Context, ins Insertion) error {
			done <- ins
			return nil
		})
		m.handleEvent(context.Background(), insertion("/dev/sr3", "4"))
		m.Wait()
		if ins := <-done; ins.Device != "/dev/sr3" {
			t.Fatalf("unexpected insertion %+v", ins)
		}
	})

	t.Run("drops insertions while busy", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		calls := 0
		m := NewMonitor("/dev/sr0", nil, func(context.Context, Insertion) error {
			calls++
			close(started)
			<-release
			return errors.New("rip failed")
		})
		m.handleEvent(context.Background(), insertion("/dev/sr0", "3"))
		<-started
		m.handleEvent(context.Background(), insertion("/dev/sr0", "3"))
		close(release)
		m.Wait()
		if calls != 1 {
			t.Fatalf("expected 1 handler call, got %d", calls)
		}
	})
}

func TestMonitorNilSafety(t *testing.T) {
	var m *Monitor
	m.Stop()
	m.Wait()
	if m.Running() {
		t.Fatal("nil monitor should not be running")
	}
	if err := m.Start(context.Background()); err == nil {
		t.Fatal("nil monitor start should fail")
	}
}
