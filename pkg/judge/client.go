package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "examhub",
		Subsystem: "judge",
		Name:      "submissions_total",
		Help:      "Number of submissions sent to the judge, by terminal outcome",
	}, []string{"outcome"})

	pollAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "examhub",
		Subsystem: "judge",
		Name:      "poll_attempts",
		Help:      "Polls needed before the judge reported a terminal status",
		Buckets:   []float64{1, 2, 3, 5, 8, 13, 20},
	})

	executionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "examhub",
		Subsystem: "judge",
		Name:      "execution_duration_seconds",
		Help:      "Wall-clock duration of one submit-and-poll cycle",
		Buckets:   prometheus.DefBuckets,
	})
)

// ErrExecutionTimeout indicates the judge never reached a terminal status
// within the poll budget.
var ErrExecutionTimeout = errors.New("judge execution timed out")

// ErrTransport indicates the submit or poll HTTP exchange itself failed.
var ErrTransport = errors.New("judge transport error")

// Client drives an external Judge0-compatible execution service.
type Client interface {
	Execute(ctx context.Context, sourceCode string, languageID int, stdin string) (Outcome, error)
}

// Config groups judge client configuration values.
type Config struct {
	BaseURL     string
	APIKey      string
	APIHost     string
	PollWait    time.Duration
	MaxPolls    int
	HTTPTimeout time.Duration
	Logger      zerolog.Logger
}

type client struct {
	baseURL  string
	apiKey   string
	apiHost  string
	pollWait time.Duration
	maxPolls int
	http     *http.Client
	logger   zerolog.Logger
}

// NewClient constructs a judge client from configuration.
func NewClient(cfg Config) Client {
	if cfg.PollWait <= 0 {
		cfg.PollWait = 1500 * time.Millisecond
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 20
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}

	baseURL := cfg.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &client{
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		apiHost:  cfg.APIHost,
		pollWait: cfg.PollWait,
		maxPolls: cfg.MaxPolls,
		http:     &http.Client{Timeout: cfg.HTTPTimeout},
		logger:   cfg.Logger.With().Str("component", "judge_client").Logger(),
	}
}

type submissionRequest struct {
	SourceCode     string      `json:"source_code"`
	LanguageID     int         `json:"language_id"`
	Stdin          string      `json:"stdin"`
	ExpectedOutput interface{} `json:"expected_output"`
}

type submissionStatus struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type submissionResponse struct {
	Token         string           `json:"token"`
	Status        submissionStatus `json:"status"`
	Stdout        string           `json:"stdout"`
	Stderr        string           `json:"stderr"`
	CompileOutput string           `json:"compile_output"`
	Message       string           `json:"message"`
	Time          string           `json:"time"`
	Memory        int              `json:"memory"`
}

func (r submissionResponse) timeSeconds() float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(r.Time), 64)
	if err != nil {
		return 0
	}
	return parsed
}

// Execute submits one (code, language, stdin) triple and polls until the
// judge reports a terminal status. The poll loop is bounded: after maxPolls
// attempts without a terminal status the call fails with ErrExecutionTimeout.
func (c *client) Execute(ctx context.Context, sourceCode string, languageID int, stdin string) (Outcome, error) {
	tracer := otel.Tracer("github.com/noah-isme/examhub-go-api/pkg/judge")
	ctx, span := tracer.Start(ctx, "judge.execute")
	span.SetAttributes(attribute.Int("judge.language_id", languageID))
	defer span.End()

	start := time.Now()
	defer func() {
		executionSeconds.Observe(time.Since(start).Seconds())
	}()

	token, err := c.submit(ctx, sourceCode, languageID, stdin)
	if err != nil {
		submissionsTotal.WithLabelValues("transport_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit_failed")
		return Outcome{}, err
	}

	for attempt := 1; attempt <= c.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return Outcome{}, fmt.Errorf("%w: %v", ErrTransport, ctx.Err())
		case <-time.After(c.pollWait):
		}

		resp, err := c.poll(ctx, token)
		if err != nil {
			submissionsTotal.WithLabelValues("transport_error").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "poll_failed")
			return Outcome{}, err
		}

		c.logger.Debug().
			Int("attempt", attempt).
			Int("status_id", resp.Status.ID).
			Str("status", resp.Status.Description).
			Msg("polled judge submission")

		if isTerminalStatus(resp.Status.ID) {
			pollAttempts.Observe(float64(attempt))
			outcome := decodeOutcome(resp)
			submissionsTotal.WithLabelValues(outcomeLabel(outcome.Kind)).Inc()
			span.SetAttributes(attribute.String("judge.outcome", outcomeLabel(outcome.Kind)))
			return outcome, nil
		}
	}

	submissionsTotal.WithLabelValues("execution_timeout").Inc()
	span.SetStatus(codes.Error, "poll_budget_exhausted")
	return Outcome{}, fmt.Errorf("%w after %d polls", ErrExecutionTimeout, c.maxPolls)
}

func (c *client) submit(ctx context.Context, sourceCode string, languageID int, stdin string) (string, error) {
	payload := submissionRequest{
		SourceCode:     sourceCode,
		LanguageID:     languageID,
		Stdin:          stdin,
		ExpectedOutput: nil,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode submission: %v", ErrTransport, err)
	}

	url := c.baseURL + "submissions?base64_encoded=false&wait=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build submit request: %v", ErrTransport, err)
	}
	c.setHeaders(req)

	var created submissionResponse
	if err := c.do(req, &created); err != nil {
		return "", err
	}
	if created.Token == "" {
		return "", fmt.Errorf("%w: judge returned no submission token", ErrTransport)
	}

	return created.Token, nil
}

func (c *client) poll(ctx context.Context, token string) (submissionResponse, error) {
	url := c.baseURL + "submissions/" + token + "?base64_encoded=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return submissionResponse{}, fmt.Errorf("%w: build poll request: %v", ErrTransport, err)
	}
	c.setHeaders(req)

	var resp submissionResponse
	if err := c.do(req, &resp); err != nil {
		return submissionResponse{}, err
	}

	return resp, nil
}

func (c *client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-rapidapi-key", c.apiKey)
	}
	if c.apiHost != "" {
		req.Header.Set("x-rapidapi-host", c.apiHost)
	}
}

func (c *client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: judge responded %s: %s", ErrTransport, resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}

	return nil
}

func outcomeLabel(kind OutcomeKind) string {
	switch kind {
	case OutcomeSuccess:
		return "success"
	case OutcomeCompileError:
		return "compile_error"
	case OutcomeRuntimeError:
		return "runtime_error"
	case OutcomeTimeLimit:
		return "time_limit"
	case OutcomeMemoryLimit:
		return "memory_limit"
	case OutcomeKilled:
		return "killed"
	default:
		return "unknown"
	}
}
