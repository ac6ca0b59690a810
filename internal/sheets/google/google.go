// Package google mirrors ledger events into a Google Sheet through the
// Sheets v4 API.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

var _ sheets.LedgerMirror = (*Client)(nil)

type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string

	// Endpoint and HTTPClient replace the Google endpoint and its
	// authenticated transport. Used to point the client at a fake server.
	Endpoint   string
	HTTPClient *http.Client

	Logger *log.Logger
}

// Client appends one row per ledger event. Keys already present in the sheet
// are loaded once and kept in memory, so a redelivered event is skipped.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger

	mu     sync.Mutex
	loaded bool
	seen   map[sheets.RowKey]struct{}
}

// NewFromConfig builds a client from the worker configuration.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Client, error) {
	return New(ctx, Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsFile: cfg.GoogleCredentialsFile,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		Logger:          logger,
	})
}

func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = "Ledger"
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
		seen:          make(map[sheets.RowKey]struct{}),
	}, nil
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	var clientOpts []goption.ClientOption
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, goption.WithEndpoint(opts.Endpoint))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, goption.WithHTTPClient(opts.HTTPClient))
		return gsheet.NewService(ctx, clientOpts...)
	}

	credentialsJSON, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}
	clientOpts = append(clientOpts,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	)
	return gsheet.NewService(ctx, clientOpts...)
}

func loadCredentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case opts.CredentialsFile != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials")
}

func (c *Client) MirrorEvent(ctx context.Context, ev core.LedgerEvent) error {
	if err := sheets.ValidateEvent(ev); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadKeys(ctx); err != nil {
		return err
	}
	key := sheets.KeyOf(ev)
	if _, ok := c.seen[key]; ok {
		c.logger.DebugContext(ctx, "Event already mirrored",
			log.FieldEventKind, ev.Kind, log.FieldTransactionID, ev.TransactionID)
		return nil
	}

	if err := c.append(ctx, sheets.EventRow(ev)); err != nil {
		return fmt.Errorf("append event row: %w", err)
	}
	c.seen[key] = struct{}{}
	c.logger.InfoContext(ctx, "Event mirrored",
		log.NewFields().WithEvent(ev).WithOperation(log.OpMirror).ToSlice()...)
	return nil
}

// loadKeys reads the key columns once. An empty sheet gets its header row.
func (c *Client) loadKeys(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	rng := fmt.Sprintf("%s!A:C", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 {
		if err := c.append(ctx, sheets.Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, row := range resp.Values {
		if key, ok := sheets.ParseRowKey(row); ok {
			c.seen[key] = struct{}{}
		}
	}
	c.loaded = true
	c.logger.InfoContext(ctx, "Loaded mirrored keys", "sheet", c.sheetName, "count", len(c.seen))
	return nil
}

func (c *Client) append(ctx context.Context, row []any) error {
	rng := fmt.Sprintf("%s!%s", c.sheetName, sheets.Columns)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return err
}
