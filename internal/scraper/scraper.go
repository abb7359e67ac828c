package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/guild-tracker/internal/event"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"
)

const (
	RosterURL = "https://pr-underworld.com/website/"
	UserAgent = "guild-tracker/1.1 (github.com/pfrederiksen/guild-tracker)"
	Timeout   = 30 * time.Second

	DefaultNameColumn  = 0
	DefaultGuildColumn = 3
)

// ErrNoPlayers is returned when a page contains no recognizable player rows
var ErrNoPlayers = errors.New("no player rows found")

// FetchError reports a transport failure or a non-success response
type FetchError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports page content that did not yield a usable roster
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Options configures a Scraper. Zero values select the defaults.
type Options struct {
	URL         string
	UserAgent   string
	Timeout     time.Duration
	NameColumn  int
	GuildColumn int
	Client      *http.Client
}

// Scraper handles fetching and parsing the roster page
type Scraper struct {
	client      *http.Client
	url         string
	userAgent   string
	timeout     time.Duration
	nameColumn  int
	guildColumn int
}

// New creates a new Scraper instance
func New(opts Options) *Scraper {
	s := &Scraper{
		url:         opts.URL,
		userAgent:   opts.UserAgent,
		timeout:     opts.Timeout,
		nameColumn:  opts.NameColumn,
		guildColumn: opts.GuildColumn,
		client:      opts.Client,
	}
	if s.url == "" {
		s.url = RosterURL
	}
	if s.userAgent == "" {
		s.userAgent = UserAgent
	}
	if s.timeout <= 0 {
		s.timeout = Timeout
	}
	if s.nameColumn == 0 && s.guildColumn == 0 {
		s.guildColumn = DefaultGuildColumn
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: s.timeout}
	}
	return s
}

// URL returns the roster page address
func (s *Scraper) URL() string {
	return s.url
}

// FetchRoster fetches the roster page and returns the players it shows
func (s *Scraper) FetchRoster(ctx context.Context) (*event.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{
			URL:        s.url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &ParseError{URL: s.url, Err: fmt.Errorf("decoding body: %w", err)}
	}

	snap, err := s.parseRoster(body)
	if err != nil {
		var readErr *readError
		if errors.As(err, &readErr) {
			return nil, &FetchError{URL: s.url, Err: readErr.err}
		}
		return nil, &ParseError{URL: s.url, Err: err}
	}
	return snap, nil
}

// readError marks a body read failure surfaced through the HTML parser
type readError struct {
	err error
}

func (e *readError) Error() string {
	return e.err.Error()
}

// trackingReader remembers the first read failure so it is not mistaken for bad markup
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}

// parseRoster extracts player rows from HTML
func (s *Scraper) parseRoster(r io.Reader) (*event.Snapshot, error) {
	tr := &trackingReader{r: r}
	doc, err := goquery.NewDocumentFromReader(tr)
	if tr.err != nil {
		return nil, &readError{err: fmt.Errorf("reading body: %w", tr.err)}
	}
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	snap := event.NewSnapshot()
	minCells := max(s.nameColumn, s.guildColumn) + 1

	// A player row has a row header and enough data cells for name and guild
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.ChildrenFiltered(`th[scope="row"]`).Length() == 0 {
			return
		}

		cells := row.ChildrenFiltered("td")
		if cells.Length() < minCells {
			return
		}

		name := cellText(cells.Eq(s.nameColumn), "")
		if name == "" {
			return
		}
		snap.Set(name, cellText(cells.Eq(s.guildColumn), " "))
	})

	if snap.Len() == 0 {
		return nil, ErrNoPlayers
	}
	return snap, nil
}

// cellText joins the trimmed text nodes of a cell with sep, skipping the
// empty ones. Names use no separator: "<a>Foo</a> <b>Bar</b>" is "FooBar".
func cellText(cell *goquery.Selection, sep string) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range cell.Nodes {
		walk(n)
	}
	return norm.NFC.String(strings.Join(parts, sep))
}
