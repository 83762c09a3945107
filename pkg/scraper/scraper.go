// Package scraper fetches the public page of a course so its title can
// be used as context while processing a coursework document.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/courseplan/internal/types"
	"golang.org/x/time/rate"
)

type ScraperConfig struct {
	RateLimit      float64 // requests per second
	IgnorePatterns []string
	Timeout        time.Duration
	// MaxSummary caps the main-content excerpt, in runes.
	MaxSummary int
	UserAgent  string
	// AllowPrivateNetworks permits loopback, private and link-local
	// targets. Course pages are public, so this is off outside tests.
	AllowPrivateNetworks bool
}

// ErrBlockedAddress is returned when a course url resolves to an address
// that is not publicly routable.
var ErrBlockedAddress = errors.New("address not allowed")

type Scraper struct {
	config  ScraperConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewWithConfig(config ScraperConfig) *Scraper {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if config.MaxSummary == 0 {
		config.MaxSummary = 2000
	}
	if config.UserAgent == "" {
		config.UserAgent = "courseplan/1.0"
	}

	dialer := &net.Dialer{Timeout: config.Timeout}
	if !config.AllowPrivateNetworks {
		dialer.Control = publicOnly
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	return &Scraper{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout, Transport: transport},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// publicOnly runs after DNS resolution for every connection, redirects
// included, so it sees the address actually dialed.
func publicOnly(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublic(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	return nil
}

var sharedAddressSpace = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

func isPublic(ip net.IP) bool {
	switch {
	case ip.IsLoopback(), ip.IsPrivate(), ip.IsUnspecified(),
		ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(), ip.IsMulticast():
		return false
	case sharedAddressSpace.Contains(ip):
		return false
	}
	return true
}

func New() *Scraper {
	return NewWithConfig(ScraperConfig{})
}

func (s *Scraper) shouldProcessURL(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false
	}
	if parsedURL.Host == "" {
		return false
	}
	if strings.HasSuffix(strings.ToLower(parsedURL.Path), ".pdf") {
		return false
	}

	for _, pattern := range s.config.IgnorePatterns {
		if strings.Contains(urlStr, pattern) {
			return false
		}
	}

	return true
}

func (s *Scraper) cleanContent(content string) string {
	content = strings.Join(strings.Fields(content), " ")

	noisePatterns := []string{
		"Cookie Policy",
		"Accept Cookies",
		"Privacy Policy",
		"Terms of Service",
		"Skip to main content",
	}

	for _, pattern := range noisePatterns {
		content = strings.ReplaceAll(content, pattern, "")
	}

	return strings.TrimSpace(content)
}

func (s *Scraper) extractMainContent(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, noscript").Remove()

	selectors := []string{
		"main",
		"article",
		".content",
		"#content",
		"#main-content",
		".course-description",
	}

	var content string
	for _, selector := range selectors {
		if selected := doc.Find(selector).First(); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}

	if strings.TrimSpace(content) == "" {
		content = doc.Find("body").Text()
	}

	return s.cleanContent(content)
}

func extractTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// Fetch implements types.ContextFetcher.
func (s *Scraper) Fetch(ctx context.Context, urlStr string) (*types.CourseContext, error) {
	if !s.shouldProcessURL(urlStr) {
		return nil, fmt.Errorf("unsupported course url: %s", urlStr)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, urlStr)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", urlStr, err)
	}

	title := extractTitle(doc)
	summary := s.extractMainContent(doc)
	if r := []rune(summary); len(r) > s.config.MaxSummary {
		summary = string(r[:s.config.MaxSummary])
	}

	return &types.CourseContext{
		URL:     urlStr,
		Title:   title,
		Summary: summary,
	}, nil
}
