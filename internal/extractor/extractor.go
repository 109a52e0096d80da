package extractor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"banketl/internal/config"
	apperrors "banketl/internal/errors"
	"banketl/pkg/contracts/domain"
)

// SkippedRow records a table row that had too few data cells
type SkippedRow struct {
	Index int `json:"index"` // position among the tbody rows
	Cells int `json:"cells"`
}

// Result is the outcome of one extraction
type Result struct {
	Records []domain.BankRecord
	Skipped []SkippedRow
	Rows    int // total <tr> rows seen in the table body
}

// Extractor fetches and parses the bank table
type Extractor struct {
	client *http.Client
	cfg    config.SourceConfig
	logger *slog.Logger
}

// NewHTTPClient returns a client instrumented with otelhttp. A zero timeout
// keeps the transport default.
func NewHTTPClient(timeout time.Duration, tp trace.TracerProvider) *http.Client {
	opts := []otelhttp.Option{}
	if tp != nil {
		opts = append(opts, otelhttp.WithTracerProvider(tp))
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport, opts...),
	}
}

// New creates an extractor. A nil client uses NewHTTPClient(cfg.Timeout, nil).
func New(client *http.Client, cfg config.SourceConfig, logger *slog.Logger) *Extractor {
	if client == nil {
		client = NewHTTPClient(cfg.Timeout, nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		client: client,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "extractor")),
	}
}

// Extract fetches sourceURL with a single GET and parses its first table body.
func (e *Extractor) Extract(ctx context.Context, sourceURL string) (*Result, error) {
	body, err := e.fetch(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := html.Parse(body)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse HTML", err).WithContext("url", sourceURL)
	}

	result, err := e.Parse(doc)
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Extraction complete",
		slog.String("url", sourceURL),
		slog.Int("rows", result.Rows),
		slog.Int("records", len(result.Records)),
		slog.Int("skipped", len(result.Skipped)))

	return result, nil
}

func (e *Extractor) fetch(ctx context.Context, sourceURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to build request", err).WithContext("url", sourceURL)
	}
	if e.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", e.cfg.UserAgent)
	}

	e.logger.InfoContext(ctx, "Fetching source page", slog.String("url", sourceURL))

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to fetch source page", err).WithContext("url", sourceURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("unexpected status %d fetching source page", resp.StatusCode), nil).
			WithContext("url", sourceURL).
			WithContext("status", resp.StatusCode)
	}
	return resp.Body, nil
}

// Parse extracts records from an already parsed document.
func (e *Extractor) Parse(doc *html.Node) (*Result, error) {
	tbody := findFirst(doc, atom.Tbody)
	if tbody == nil {
		return nil, apperrors.NewParsingError("no table body found in document", nil)
	}

	needed := max(e.cfg.NameColumn, e.cfg.MarketCapColumn) + 1
	result := &Result{}

	for _, row := range childElements(tbody, atom.Tr) {
		index := result.Rows
		result.Rows++

		cells := childElements(row, atom.Td)
		if len(cells) < e.cfg.MinCells {
			result.Skipped = append(result.Skipped, SkippedRow{Index: index, Cells: len(cells)})
			e.logger.Debug("Skipped row", slog.Int("index", index), slog.Int("cells", len(cells)))
			continue
		}
		if len(cells) < needed {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("row %d has %d data cells, column %d required", index, len(cells), needed-1), nil).
				WithContext("row", index)
		}

		result.Records = append(result.Records, domain.BankRecord{
			Name:         cellText(cells[e.cfg.NameColumn]),
			MarketCapUSD: cellText(cells[e.cfg.MarketCapColumn]),
		})
	}

	return result, nil
}

// findFirst returns the first element with the given atom in document order.
func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func childElements(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			out = append(out, c)
		}
	}
	return out
}

// cellText concatenates the trimmed text nodes under n with no separator.
func cellText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
