package disc

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pilebones/go-udev/netlink"

	"cdrip/internal/logging"
	"cdrip/internal/services"
)

// Insertion describes audio media that appeared in a drive.
type Insertion struct {
	Device      string
	AudioTracks int
}

// InsertionHandler reacts to an inserted disc. It runs on its own goroutine;
// insertions reported while a handler is still running are dropped.
type InsertionHandler func(ctx context.Context, ins Insertion) error

// Monitor listens for udev netlink events and reports audio CD insertions.
type Monitor struct {
	logger  *slog.Logger
	handler InsertionHandler
	device  string

	busy atomic.Bool
	wg   sync.WaitGroup

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewMonitor creates a monitor for device. An empty device accepts every drive.
func NewMonitor(device string, logger *slog.Logger, handler InsertionHandler) *Monitor {
	return &Monitor{
		logger:  logging.NewComponentLogger(logger, "disc-monitor"),
		handler: handler,
		device:  strings.TrimSpace(device),
	}
}

// Start connects to the kernel uevent socket and begins dispatching.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return errors.New("disc monitor not configured")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return services.Wrap(services.ErrExternalTool, "disc", "monitor",
			"connect to udev netlink socket", err)
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, conn, quit)

	m.logger.Info("disc monitor started",
		logging.String(logging.FieldEventType, "disc_monitor_started"),
		logging.String("device", m.deviceLabel()),
	)
	return nil
}

// Stop shuts down the monitor and waits for a running handler to return.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false
	m.mu.Unlock()

	m.wg.Wait()
	m.logger.Info("disc monitor stopped",
		logging.String(logging.FieldEventType, "disc_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Wait blocks until any in-flight handler returns.
func (m *Monitor) Wait() {
	if m == nil {
		return
	}
	m.wg.Wait()
}

func (m *Monitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "udev monitor error", "disc_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "disc insertions may be missed"),
			)
		}
	}
}

// buildMatcher matches audio media events:
// SUBSYSTEM=block, ID_CDROM=1, ID_CDROM_MEDIA=1, ID_CDROM_MEDIA_CD=1, ACTION=change|add
func buildMatcher() netlink.Matcher {
	action := "change|add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":         "block",
			"ID_CDROM":          "1",
			"ID_CDROM_MEDIA":    "1",
			"ID_CDROM_MEDIA_CD": "1",
		},
	})
	return rules
}

func (m *Monitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	devname := extractDeviceName(uevent)
	if devname == "" {
		m.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}
	if m.device != "" && devname != m.device {
		m.logger.Debug("ignoring event for non-configured device",
			logging.String("device", devname),
			logging.String("configured_device", m.device),
		)
		return
	}

	tracks := audioTrackCount(uevent)
	if tracks == 0 {
		m.logger.Info("inserted disc has no audio tracks",
			logging.String(logging.FieldEventType, "disc_no_audio"),
			logging.String("device", devname),
		)
		return
	}

	ins := Insertion{Device: devname, AudioTracks: tracks}
	m.logger.Info("audio cd detected",
		logging.String(logging.FieldEventType, "disc_detected"),
		logging.String("device", devname),
		logging.Int("audio_tracks", tracks),
		logging.String("action", string(uevent.Action)),
	)

	if m.handler == nil {
		return
	}
	if !m.busy.CompareAndSwap(false, true) {
		m.logger.Debug("handler busy, ignoring insertion", logging.String("device", devname))
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.busy.Store(false)
		if err := m.handler(ctx, ins); err != nil {
			logging.WarnWithContext(m.logger, "disc insertion handler failed", "disc_handler_failed",
				logging.Error(err),
				logging.ErrorKind(err),
				logging.String("device", devname),
				logging.String(logging.FieldImpact, "disc not ripped"),
			)
		}
	}()
}

func (m *Monitor) deviceLabel() string {
	if m.device == "" {
		return "any"
	}
	return m.device
}

// extractDeviceName gets the device path from a uevent.
func extractDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		return devname
	}

	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return "/dev/" + parts[len(parts)-1]
}

// audioTrackCount reads the audio track count udev attaches to CD media events.
func audioTrackCount(uevent netlink.UEvent) int {
	raw := strings.TrimSpace(uevent.Env["ID_CDROM_MEDIA_TRACK_COUNT_AUDIO"])
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
