// Package supabase is a port.DocumentStore over Supabase PostgREST. Each
// collection is a table whose columns carry the document's JSON field names,
// plus an id primary key and a created_at column used for stable ordering.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/resilience"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	bulkhead       *resilience.Bulkhead
	logger         *zap.Logger
}

// NewClient creates a Supabase client. cfg.MaxConcurrency bounds the number
// of requests in flight; zero means unbounded.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	var bulkhead *resilience.Bulkhead
	if cfg.MaxConcurrency > 0 {
		bulkhead = resilience.NewBulkhead(cfg.MaxConcurrency)
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		bulkhead:       bulkhead,
		logger:         logger,
	}
}

// call runs fn behind the circuit breaker with retries and maps the outcome
// to domain errors.
func (c *Client) call(ctx context.Context, service string, fn func() error) error {
	if c.bulkhead != nil {
		if err := c.bulkhead.Acquire(ctx); err != nil {
			return &domain.ErrExternalService{Service: "supabase/" + service, Err: err}
		}
		defer c.bulkhead.Release()
	}
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, fn)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: "supabase"}
	case resilience.IsPermanent(err):
		return resilience.Unwrap(err)
	}
	return &domain.ErrExternalService{Service: "supabase/" + service, Err: err}
}

func eqID(table, id string) string {
	return fmt.Sprintf("%s?id=eq.%s", table, url.QueryEscape(id))
}

// ============================================================
// port.DocumentStore
// ============================================================

func (c *Client) Add(ctx context.Context, table string, doc map[string]any) (string, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Add")
	defer span.End()
	span.SetAttributes(attribute.String("table", table))

	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.New().String()
	}
	row := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		row[k] = v
	}
	row["id"] = id

	err := c.call(ctx, table, func() error {
		_, err := c.doPost(ctx, table, row)
		var se *statusError
		if errors.As(err, &se) && se.Status == http.StatusConflict {
			return resilience.Permanent(&domain.ErrConflict{Message: fmt.Sprintf("%s already exists: %s", table, id)})
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (c *Client) Update(ctx context.Context, table, id string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.Update")
	defer span.End()
	span.SetAttributes(attribute.String("table", table), attribute.String("id", id))

	patch := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != "id" {
			patch[k] = v
		}
	}

	return c.call(ctx, table, func() error {
		body, err := c.doPatch(ctx, eqID(table, id), patch)
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return resilience.Permanent(&domain.ErrNotFound{Resource: table, ID: id})
		}
		return nil
	})
}

func (c *Client) Delete(ctx context.Context, table, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("table", table), attribute.String("id", id))

	return c.call(ctx, table, func() error {
		body, err := c.doDelete(ctx, eqID(table, id))
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return resilience.Permanent(&domain.ErrNotFound{Resource: table, ID: id})
		}
		return nil
	})
}

func (c *Client) Get(ctx context.Context, table, id string) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Get")
	defer span.End()
	span.SetAttributes(attribute.String("table", table), attribute.String("id", id))

	var doc json.RawMessage
	err := c.call(ctx, table, func() error {
		rows, err := c.getRows(ctx, eqID(table, id)+"&limit=1")
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: table, ID: id})
		}
		doc = rows[0]
		return nil
	})
	return doc, err
}

func (c *Client) GetAll(ctx context.Context, table string) ([]json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAll")
	defer span.End()
	span.SetAttributes(attribute.String("table", table))

	var docs []json.RawMessage
	err := c.call(ctx, table, func() error {
		var err error
		docs, err = c.getRows(ctx, table+"?order=created_at.asc")
		return err
	})
	return docs, err
}

func (c *Client) GetFiltered(ctx context.Context, table, field, value string) ([]json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetFiltered")
	defer span.End()
	span.SetAttributes(attribute.String("table", table), attribute.String("field", field))

	path := fmt.Sprintf("%s?%s=eq.%s&order=created_at.asc", table, url.QueryEscape(field), url.QueryEscape(value))
	var docs []json.RawMessage
	err := c.call(ctx, table, func() error {
		var err error
		docs, err = c.getRows(ctx, path)
		return err
	})
	return docs, err
}

// Ping checks that PostgREST answers for the accounts table.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	_, err := c.doRequest(ctx, http.MethodGet, "bank_accounts?select=id&limit=1")
	return err
}

func (c *Client) getRows(ctx context.Context, path string) ([]json.RawMessage, error) {
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	rows := []json.RawMessage{}
	if isEmpty(body) {
		return rows, nil
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, resilience.Permanent(fmt.Errorf("failed to decode rows: %w", err))
	}
	return rows, nil
}

func isEmpty(body []byte) bool {
	return len(body) == 0 || string(body) == "[]"
}
