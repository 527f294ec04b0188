package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adityarahmanda/trashpoint-backend/pkg/config"
	"github.com/adityarahmanda/trashpoint-backend/pkg/enums"
	pkgerrors "github.com/adityarahmanda/trashpoint-backend/pkg/errors"
	"github.com/adityarahmanda/trashpoint-backend/pkg/logger"
)

const classifyPath = "/v1/classify"

// Payload carries the raw deposit observation sent to the scorer.
type Payload struct {
	DepositID uuid.UUID       `json:"deposit_id"`
	MachineID uuid.UUID       `json:"machine_id"`
	Weight    decimal.Decimal `json:"weight"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"image_ref,omitempty"`
}

// Result is the scorer's verdict for a single deposit.
type Result struct {
	Category     enums.WasteCategory `json:"category"`
	QualityGrade enums.QualityGrade  `json:"quality_grade"`
	Confidence   int                 `json:"confidence"`
	Detail       string              `json:"detail,omitempty"`
}

// DegradedResult is what the pipeline uses when the scorer is unreachable.
func DegradedResult() Result {
	return Result{
		Category:     enums.WasteCategoryUnknown,
		QualityGrade: enums.QualityGradeLowest,
		Confidence:   0,
		Detail:       "classifier unavailable",
	}
}

// Classifier grades deposit payloads.
type Classifier interface {
	Classify(ctx context.Context, payload Payload) (Result, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the external scorer over HTTP JSON with bounded retries.
type Client struct {
	http    httpDoer
	baseURL string
	apiKey  string
	cfg     config.ClassifierConfig
	logg    *logger.Logger
}

// NewClient initializes the classifier adapter and validates the configuration.
func NewClient(cfg config.ClassifierConfig, logg *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("classifier base url is required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaximumBackoff < cfg.InitialBackoff {
		cfg.MaximumBackoff = cfg.InitialBackoff
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 5 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.CallTimeout},
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		cfg:     cfg,
		logg:    logg,
	}, nil
}

// Classify sends the payload to the scorer. Only transport failures and 5xx
// responses are retried; a 4xx is final on the first attempt.
func (c *Client) Classify(ctx context.Context, payload Payload) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding classify payload")
	}

	attempts := 0
	backoff := c.cfg.InitialBackoff

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		result, err := c.do(ctx, body)
		if err == nil {
			return result, nil
		}

		attempts++
		if attempts >= c.cfg.MaxAttempts || !isRetryable(err) {
			return Result{}, err
		}

		if c.logg != nil {
			c.logg.Warn(ctx, fmt.Sprintf("classifier call failed (attempt %d), retrying", attempts))
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{}, ctx.Err()
		case <-timer.C:
		}
		timer.Stop()

		backoff = minDuration(backoff*2, c.cfg.MaximumBackoff)
	}
}

func (c *Client) do(ctx context.Context, body []byte) (Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+classifyPath, bytes.NewReader(body))
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building classify request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling classifier")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Result{}, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("classifier returned status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("classifier rejected payload with status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading classifier response")
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding classifier response")
	}
	return normalizeResult(result), nil
}

// normalizeResult clamps out-of-range scorer output instead of failing a deposit.
func normalizeResult(result Result) Result {
	if !result.Category.IsValid() {
		result.Category = enums.WasteCategoryUnknown
	}
	if !result.QualityGrade.IsValid() {
		result.QualityGrade = enums.QualityGradeLowest
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 100 {
		result.Confidence = 100
	}
	return result
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeValidation {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return pkgerrors.HasCode(err, pkgerrors.CodeDependency)
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
