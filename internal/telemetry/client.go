// Package telemetry is the signed out-of-band reporting channel. It is
// best-effort and fully independent of the SCORM channel: a slow or dead
// collector never blocks the test flow, and telemetry always carries the
// true result, never the LMS-adjusted one.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vvlad1973/scorm-runtime/internal/scorm"
)

// Envelope is the wire format every collector endpoint expects.
type Envelope struct {
	PackageID string          `json:"packageId"`
	SessionID string          `json:"sessionId"`
	Signature string          `json:"signature"`
	Timestamp int64           `json:"timestamp"` // unix millis
	Data      json.RawMessage `json:"data"`
}

// StartEvent opens an attempt; learner identity comes from the SCORM API
// when a host is present.
type StartEvent struct {
	TestID  string         `json:"testId"`
	Attempt int            `json:"attempt"`
	Learner scorm.Identity `json:"learner"`
}

// StartAck is the collector's reply to /start. A non-zero AttemptNumber
// overrides the local counter; the server is authoritative for numbering
// collisions across resumed sessions.
type StartAck struct {
	AttemptNumber int `json:"attemptNumber"`
}

// AnswerEvent reports one question's true correctness, fire-and-forget.
type AnswerEvent struct {
	Attempt    int    `json:"attempt"`
	QuestionID string `json:"questionId"`
	TopicID    string `json:"topicId,omitempty"`
	LevelIndex *int   `json:"levelIndex,omitempty"`
	Correct    bool   `json:"correct"`
}

// FinishEvent carries the true aggregate result, independent of any
// gradebook adjustment.
type FinishEvent struct {
	Attempt     int     `json:"attempt"`
	Percent     float64 `json:"percent"`
	Correct     int     `json:"correct"`
	Total       int     `json:"total"`
	Passed      bool    `json:"passed"`
	TimeExpired bool    `json:"timeExpired,omitempty"`
}

// ProgressEvent is the autosave payload: the full current answer map, so
// out-of-order arrival at the collector is last-write-wins safe.
type ProgressEvent struct {
	Attempt      int             `json:"attempt"`
	CurrentIndex int             `json:"currentIndex"`
	Answers      json.RawMessage `json:"answers"`
}

const defaultMaxRetries = 3

type Config struct {
	Endpoint   string // collector base URL, e.g. https://collector.example/api/v1
	PackageID  string
	Secret     string // pre-shared, baked in at package build time
	MaxRetries int
	Interval   time.Duration // fixed retry interval; default 15s
	HTTPClient *http.Client
	Clock      func() time.Time
}

type queued struct {
	path  string
	env   Envelope
	isAck bool // expect a StartAck in the response
	tries int
}

// Client buffers outbound events in a FIFO queue. The head item is retried
// up to MaxRetries and blocks the rest of the queue until it succeeds or
// exhausts its retries; items are never silently dropped or reordered.
type Client struct {
	cfg       Config
	sessionID string

	mu      sync.Mutex
	attempt int
	queue   []queued

	// flushMu serializes drains so concurrent triggers cannot double-send
	// the head item.
	flushMu sync.Mutex

	online chan struct{}
}

func NewClient(cfg Config) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Client{
		cfg:       cfg,
		sessionID: uuid.NewString(), // one per package load, not the LMS learner id
		attempt:   1,
		online:    make(chan struct{}, 1),
	}
}

// SessionID is the random per-load identifier carried on every envelope.
func (c *Client) SessionID() string { return c.sessionID }

// Attempt returns the current attempt number.
func (c *Client) Attempt() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

// NextAttempt increments the local counter; called on restart.
func (c *Client) NextAttempt() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempt++
	return c.attempt
}

// SetAttempt overrides the local counter; called when resuming a mirrored
// attempt in a fresh page load. The server's /start ack may override again.
func (c *Client) SetAttempt(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	c.attempt = n
	c.mu.Unlock()
}

// Start reports the beginning of an attempt.
func (c *Client) Start(ev StartEvent) {
	c.enqueue("/start", ev, true)
}

// Answer reports one answered question.
func (c *Client) Answer(ev AnswerEvent) {
	c.enqueue("/answer", ev, false)
}

// Finish reports the true final result.
func (c *Client) Finish(ev FinishEvent) {
	c.enqueue("/finish", ev, false)
}

// Progress autosaves the current answer map.
func (c *Client) Progress(ev ProgressEvent) {
	c.enqueue("/progress", ev, false)
}

func (c *Client) enqueue(path string, data interface{}, isAck bool) {
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("telemetry: drop %s: marshal: %v", path, err)
		return
	}
	ts := c.cfg.Clock().UnixMilli()
	env := Envelope{
		PackageID: c.cfg.PackageID,
		SessionID: c.sessionID,
		Signature: Sign(c.cfg.Secret, c.cfg.PackageID, c.sessionID, ts, b),
		Timestamp: ts,
		Data:      b,
	}
	c.mu.Lock()
	c.queue = append(c.queue, queued{path: path, env: env, isAck: isAck})
	c.mu.Unlock()
	// Delivery must never block question navigation.
	go c.Flush()
}

// Flush drains the queue from the head. A failing head item stays put with
// its retry count bumped; after MaxRetries it is dropped with a warning.
func (c *Client) Flush() {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.mu.Unlock()
			return
		}
		head := c.queue[0]
		c.mu.Unlock()

		ack, err := c.post(head.path, head.env)
		c.mu.Lock()
		if err != nil {
			c.queue[0].tries++
			if c.queue[0].tries >= c.cfg.MaxRetries {
				log.Printf("telemetry: giving up on %s after %d tries: %v", head.path, c.queue[0].tries, err)
				c.queue = c.queue[1:]
				c.mu.Unlock()
				continue
			}
			c.mu.Unlock()
			return // head blocks the rest of the queue
		}
		c.queue = c.queue[1:]
		if head.isAck && ack != nil && ack.AttemptNumber > 0 {
			c.attempt = ack.AttemptNumber
		}
		c.mu.Unlock()
	}
}

func (c *Client) post(path string, env Envelope) (*StartAck, error) {
	body, _ := json.Marshal(env)
	req, err := http.NewRequest("POST", c.cfg.Endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return nil, &statusError{status: res.Status}
	}
	var ack StartAck
	if err := json.NewDecoder(res.Body).Decode(&ack); err != nil {
		return nil, nil // ack body is optional
	}
	return &ack, nil
}

type statusError struct{ status string }

func (e *statusError) Error() string { return "telemetry: " + e.status }

// NotifyOnline wakes the retry loop, mirroring the browser's
// online-transition event.
func (c *Client) NotifyOnline() {
	select {
	case c.online <- struct{}{}:
	default:
	}
}

// Run retries the buffer on a fixed interval and on online transitions
// until ctx is cancelled.
func (c *Client) Run(ctx context.Context) {
	t := time.NewTicker(c.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Flush()
		case <-c.online:
			c.Flush()
		}
	}
}
