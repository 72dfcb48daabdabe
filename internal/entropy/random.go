// Package entropy provides the randomness sources that drive the simulation.
// Seeded sources make runs reproducible; the random.org client gives true
// randomness with a crypto/rand fallback.
package entropy

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"io"
	"log/slog"
	mrand "math/rand"
	"net/http"
	"sync"
	"time"
)

// Source draws the random numbers a tick consumes.
type Source interface {
	// IntRange returns a uniform integer in [lo, hi] inclusive.
	IntRange(lo, hi int) int
	// Float64 returns a uniform float in [0, 1).
	Float64() float64
}

// Forker is implemented by sources that can hand out independent child
// sources, one per concurrent worker.
type Forker interface {
	Fork() Source
}

// Rand is a seeded pseudo-random source. Not safe for concurrent use; fork it.
type Rand struct {
	r *mrand.Rand
}

// NewSeeded creates a reproducible source. A seed of 0 picks one from crypto/rand.
func NewSeeded(seed int64) *Rand {
	if seed == 0 {
		seed = int64(binary.LittleEndian.Uint64(cryptoBytes()) >> 1)
	}
	return &Rand{r: mrand.New(mrand.NewSource(seed))}
}

// IntRange implements Source.
func (r *Rand) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.r.Intn(hi-lo+1)
}

// Float64 implements Source.
func (r *Rand) Float64() float64 {
	return r.r.Float64()
}

// Fork derives a child source seeded from this one.
func (r *Rand) Fork() Source {
	return &Rand{r: mrand.New(mrand.NewSource(r.r.Int63()))}
}

// Client provides true random numbers from random.org with a local pool.
type Client struct {
	apiKey string
	client *http.Client

	mu   sync.Mutex
	pool []float64
}

// NewClient creates a random.org client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Float64 returns a random float64 in [0, 1). Uses the pool, refilling from
// random.org when low. Falls back to crypto/rand on API failure.
func (c *Client) Float64() float64 {
	if c == nil {
		return cryptoRandFloat()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pool) < 10 {
		c.refill()
	}

	if len(c.pool) == 0 {
		return cryptoRandFloat()
	}

	val := c.pool[0]
	c.pool = c.pool[1:]
	return val
}

// IntRange maps a pooled float onto [lo, hi].
func (c *Client) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	n := hi - lo + 1
	v := lo + int(c.Float64()*float64(n))
	if v > hi {
		v = hi
	}
	return v
}

// Fork shares the pool; the client is already safe for concurrent use.
func (c *Client) Fork() Source {
	return c
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

func (c *Client) refill() {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateDecimalFractions",
		"params": map[string]any{
			"apiKey":        c.apiKey,
			"n":             100,
			"decimalPlaces": 6,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		slog.Debug("random.org marshal failed", "error", err)
		return
	}

	resp, err := c.client.Post("https://api.random.org/json-rpc/4/invoke", "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Debug("random.org fetch failed", "error", err)
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Debug("random.org read failed", "error", err)
		return
	}

	var result struct {
		Result struct {
			Random struct {
				Data []float64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		slog.Debug("random.org parse failed", "error", err)
		return
	}
	if result.Error != nil {
		slog.Debug("random.org API error", "error", result.Error.Message)
		return
	}

	c.pool = append(c.pool, result.Result.Random.Data...)
	slog.Debug("random.org pool refilled", "count", len(result.Result.Random.Data))
}

// FromConfig picks the random.org client when a key is set, otherwise a seeded source.
func FromConfig(apiKey string, seed int64) Source {
	if c := NewClient(apiKey); c.Enabled() {
		return c
	}
	return NewSeeded(seed)
}

func cryptoBytes() []byte {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		binary.LittleEndian.PutUint64(buf, uint64(time.Now().UnixNano()))
	}
	return buf
}

// cryptoRandFloat generates a random float64 using crypto/rand as fallback.
func cryptoRandFloat() float64 {
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(cryptoBytes()) >> 11
	return float64(n) / float64(1<<53)
}
