package tray

import (
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"fyne.io/systray"
	"go.uber.org/zap"
)

// Actions are the callbacks behind the tray menu.
type Actions struct {
	// Stop halts the motors and ends the control loop.
	Stop func()
	// Exit quits the application.
	Exit func()
}

// Tray manages the system tray icon and menu
type Tray struct {
	actions      Actions
	url          string
	logger       *zap.SugaredLogger
	once         sync.Once
	shuttingDown atomic.Bool
	menuStop     *systray.MenuItem
	menuOpen     *systray.MenuItem
	menuExit     *systray.MenuItem
}

// New creates a tray whose "Open dashboard" entry points at the HTTP address.
func New(actions Actions, httpAddr string, logger *zap.SugaredLogger) *Tray {
	return &Tray{
		actions: actions,
		url:     DashboardURL(httpAddr),
		logger:  logger,
	}
}

// DashboardURL turns a listen address into a browsable URL.
func DashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

// Run initializes and runs the system tray (blocks until Quit())
func (t *Tray) Run() {
	systray.Run(func() {
		t.onReady()
	}, func() {
		t.onExit()
	})
}

// Quit removes the tray icon, returning from Run.
func (t *Tray) Quit() {
	if t.shuttingDown.CompareAndSwap(false, true) {
		systray.Quit()
	}
}

func (t *Tray) onReady() {
	systray.SetTitle("BrickTeleop")
	systray.SetTooltip("BrickTeleop - " + t.url)

	t.menuStop = systray.AddMenuItem("Emergency stop", "Coast all motors and stop driving")
	systray.AddSeparator()
	t.menuOpen = systray.AddMenuItem("Open dashboard", "Open web interface")
	t.menuExit = systray.AddMenuItem("Exit", "Quit application")

	// Handle menu clicks in separate goroutines to prevent blocking
	go t.handleMenuClicks()

	t.logger.Info("system tray initialized")
}

// handleMenuClicks processes menu item clicks without blocking
func (t *Tray) handleMenuClicks() {
	for {
		select {
		case <-t.menuStop.ClickedCh:
			t.logger.Warn("emergency stop requested from tray")
			if t.actions.Stop != nil {
				t.actions.Stop()
			}
			t.menuStop.Disable()
		case <-t.menuOpen.ClickedCh:
			if !t.shuttingDown.Load() {
				t.openBrowser()
			}
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				if t.actions.Exit != nil {
					t.once.Do(t.actions.Exit)
				}
				systray.Quit()
				return
			}
		}
	}
}

func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	t.logger.Info("system tray exiting")
}

// openBrowser opens the default web browser
func (t *Tray) openBrowser() {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", t.url)
	case "darwin":
		cmd = exec.Command("open", t.url)
	default:
		cmd = exec.Command("xdg-open", t.url)
	}

	if err := cmd.Start(); err != nil {
		t.logger.Warnw("failed to open browser", "url", t.url, "error", err)
	}
}
