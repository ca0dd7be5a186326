package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/angelmondragon/bxgy-bundles-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bxgy-bundles-backend/pkg/errors"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/logger"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/metrics"
)

var (
	errAccessTokenRequired = errors.New("shopify access token is required")
	errAPIVersionRequired  = errors.New("shopify api version is required")
	errLoggerRequired      = errors.New("shopify logger is required")
)

// Client exposes Admin GraphQL primitives with centralized auth, rate limiting,
// logging, and error mapping.
type Client struct {
	http          *http.Client
	accessToken   string
	apiVersion    string
	functionTitle string
	limiter       *rate.Limiter
	logger        *logger.Logger
	metrics       *metrics.SyncMetrics

	// endpointFor is swapped in tests to point at a local server.
	endpointFor func(shop string) string
}

// NewClient initializes the Admin API wrapper and validates the credentials.
func NewClient(cfg config.ShopifyConfig, logg *logger.Logger, m *metrics.SyncMetrics) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}
	apiVersion := strings.TrimSpace(cfg.APIVersion)
	if apiVersion == "" {
		return nil, errAPIVersionRequired
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 2
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		http:          &http.Client{Timeout: timeout},
		accessToken:   accessToken,
		apiVersion:    apiVersion,
		functionTitle: cfg.FunctionTitle,
		limiter:       rate.NewLimiter(rate.Limit(limit), int(limit)+1),
		logger:        logg,
		metrics:       m,
	}
	c.endpointFor = func(shop string) string {
		return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, c.apiVersion)
	}
	return c, nil
}

// UserError mirrors the userErrors shape every Admin mutation returns.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// UserErrorMessages flattens mutation user errors into a message list.
func UserErrorMessages(userErrors []UserError) []string {
	messages := make([]string, 0, len(userErrors))
	for _, ue := range userErrors {
		messages = append(messages, ue.Message)
	}
	return messages
}

func userErrorsFailure(op string, userErrors []UserError) error {
	return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("shopify %s rejected", op)).
		WithDetails(UserErrorMessages(userErrors))
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// execute posts one GraphQL document against the shop's Admin endpoint and
// decodes the data payload into out.
func (c *Client) execute(ctx context.Context, shop, op, query string, variables map[string]any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("shopify %s aborted", op))
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("encoding shopify %s request", op))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointFor(shop), bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("building shopify %s request", op))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	c.log(ctx, "request", op, map[string]any{"shop": shop})
	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveAPICall(op, time.Since(start))
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"shop": shop, "error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("shopify %s failed", op))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"shop": shop, "error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("reading shopify %s response", op))
	}
	if resp.StatusCode != http.StatusOK {
		c.log(ctx, "error", op, map[string]any{"shop": shop, "status": resp.StatusCode})
		return pkgerrors.New(domainCodeForStatus(resp.StatusCode), fmt.Sprintf("shopify %s returned status %d", op, resp.StatusCode))
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(payload, &envelope); err != nil {
		c.log(ctx, "error", op, map[string]any{"shop": shop, "error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decoding shopify %s response", op))
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		code := pkgerrors.CodeDependency
		for _, gqlErr := range envelope.Errors {
			messages = append(messages, gqlErr.Message)
			if gqlErr.Extensions.Code == "THROTTLED" {
				code = pkgerrors.CodeRateLimit
			}
		}
		c.log(ctx, "error", op, map[string]any{"shop": shop, "error": strings.Join(messages, "; ")})
		return pkgerrors.New(code, fmt.Sprintf("shopify %s failed", op)).WithDetails(messages)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decoding shopify %s payload", op))
		}
	}
	c.log(ctx, "response", op, map[string]any{"shop": shop})
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("shopify %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Debug(ctx, fmt.Sprintf("shopify %s", phase))
	}
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		return pkgerrors.CodeDependency
	}
}
