// Package browser manages the shared headless Chrome lifecycle for the
// scrapers: launch at boot, stealth page creation per crawl, close at
// shutdown.
package browser

import (
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

type Manager struct {
	Log *zap.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func NewManager(log *zap.Logger) *Manager {
	return &Manager{Log: log}
}

// Start launches Chrome and connects a rod session. Flags mirror what the
// scraped sites tolerate: no automation banner, Korean locale.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		return nil
	}

	l := launcher.New().
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("lang", "ko-KR,ko")

	url, err := l.Launch()
	if err != nil {
		return fmt.Errorf("browser: launch chrome: %w", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return fmt.Errorf("browser: connect: %w", err)
	}

	m.launcher = l
	m.browser = b
	m.Log.Info("Browser ready")
	return nil
}

// StealthPage opens a new page with automation fingerprints patched.
func (m *Manager) StealthPage() (*rod.Page, error) {
	m.mu.Lock()
	b := m.browser
	m.mu.Unlock()

	if b == nil {
		return nil, fmt.Errorf("browser: not started")
	}
	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create stealth page: %w", err)
	}
	return page, nil
}

// Close shuts down the browser and the Chrome process.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			m.Log.Warn("Browser close failed", zap.Error(err))
		}
		m.browser = nil
	}
	if m.launcher != nil {
		m.launcher.Cleanup()
		m.launcher = nil
	}
	m.Log.Info("Browser stopped")
}
