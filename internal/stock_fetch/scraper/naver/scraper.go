// Package naver collects discussion-board posts from Naver Finance.
// Listing pages 1..BrowserSwitchPage are fetched over plain HTTP; deeper
// pages are reached by driving the board's "next" button in a headless
// browser, because direct page URLs stop working past that depth.
package naver

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"stock-fetch/internal/stock_fetch/browser"
)

const (
	baseURL   = "https://finance.naver.com"
	mobileURL = "https://m.stock.naver.com"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxEmptyPages   = 5 // consecutive pages without a valid row
	maxBlockRetries = 3
	maxPageErrors   = 3
	blockBackoff    = 60 * time.Second
	errorBackoff    = 30 * time.Second
)

type Config struct {
	RequestDelay      time.Duration
	MaxRetries        int
	DetailWorkers     int
	BrowserSwitchPage int
	Location          *time.Location
}

func (c *Config) defaults() {
	if c.RequestDelay <= 0 {
		c.RequestDelay = time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.DetailWorkers <= 0 {
		c.DetailWorkers = 10
	}
	if c.BrowserSwitchPage <= 0 {
		c.BrowserSwitchPage = 100
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
}

type Scraper struct {
	Log     *zap.Logger
	Browser *browser.Manager
	cfg     Config

	mu   sync.Mutex
	http *resty.Client
}

func New(log *zap.Logger, bm *browser.Manager, cfg Config) *Scraper {
	cfg.defaults()
	s := &Scraper{Log: log, Browser: bm, cfg: cfg}
	s.http = s.newClient()
	return s
}

func (s *Scraper) newClient() *resty.Client {
	c := resty.New().
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", userAgent)
	c.SetCookie(&http.Cookie{
		Name:   "hide_cleanbot_contents",
		Value:  "off",
		Domain: ".naver.com",
	})
	return c
}

// resetSession drops the HTTP session and its cookies. The board starts
// serving error pages to a session it has flagged; a fresh one recovers.
func (s *Scraper) resetSession() {
	s.mu.Lock()
	s.http = s.newClient()
	s.mu.Unlock()
	s.Log.Info("Naver session reset")
}

func (s *Scraper) client() *resty.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.http
}
