// Package toss collects post comments from Toss Invest. The comment API
// requires an XSRF token that the site only hands to a real browser, so a
// stealth page bootstraps the session before the JSON calls.
package toss

import (
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"stock-fetch/internal/stock_fetch/browser"
)

const (
	siteURL       = "https://www.tossinvest.com"
	commentAPIURL = "https://wts-cert-api.tossinvest.com/api/v3/comments"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:143.0) Gecko/20100101 Firefox/143.0"

	cookieWait  = 15 * time.Second
	maxAPIPages = 200
)

type Config struct {
	RequestDelay time.Duration
	MaxRetries   int
	Location     *time.Location
}

func (c *Config) defaults() {
	if c.RequestDelay <= 0 {
		c.RequestDelay = time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.Location == nil {
		c.Location = time.FixedZone("KST", 9*3600)
	}
}

type Scraper struct {
	Log     *zap.Logger
	Browser *browser.Manager

	cfg  Config
	http *resty.Client
}

func New(log *zap.Logger, b *browser.Manager, cfg Config) *Scraper {
	cfg.defaults()
	return &Scraper{
		Log:     log,
		Browser: b,
		cfg:     cfg,
		http: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "application/json").
			SetHeader("Accept-Language", "ko-KR,ko;q=0.8,en-US;q=0.5,en;q=0.3").
			SetHeader("Origin", siteURL),
	}
}
