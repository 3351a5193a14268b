package toss

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"stock-fetch/internal/stock_fetch/model"
)

const xsrfCookie = "XSRF-TOKEN"

// session holds the browser-issued cookie jar plus the XSRF token the
// comment API wants echoed back as a header.
type session struct {
	cookies []*http.Cookie
	token   string
}

// bootstrap loads the Toss front page in a stealth page and waits until
// the site drops its XSRF cookie.
func (s *Scraper) bootstrap(ctx context.Context) (*session, error) {
	page, err := s.Browser.StealthPage()
	if err != nil {
		return nil, err
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.Navigate(siteURL); err != nil {
		return nil, fmt.Errorf("toss: navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("toss: wait load: %w", err)
	}

	deadline := time.Now().Add(cookieWait)
	for {
		raw, err := page.Cookies([]string{siteURL})
		if err != nil {
			return nil, fmt.Errorf("toss: read cookies: %w", err)
		}

		sess := &session{}
		for _, c := range raw {
			sess.cookies = append(sess.cookies, &http.Cookie{
				Name:   c.Name,
				Value:  c.Value,
				Domain: c.Domain,
				Path:   c.Path,
			})
			if c.Name == xsrfCookie {
				sess.token = c.Value
			}
		}
		if sess.token != "" {
			s.Log.Info("Toss session ready", zap.Int("cookies", len(sess.cookies)))
			return sess, nil
		}

		if time.Now().After(deadline) {
			return nil, model.NewSiteError(500,
				"toss: %s cookie did not appear, check for a site change", xsrfCookie)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}
