// Package tokens counts tokens with model-specific tiktoken encodings.
//
// Counting never panics and never returns a bare error: every outcome is a
// Result, and callers decide how a failure is reported.
package tokens

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultModel is used when the caller names no model.
	DefaultModel = "gpt-4"
	// DefaultText is counted when the caller supplies no input.
	DefaultText = "Hello, World!"
	// Sentinel is the count reported for a failed Result.
	Sentinel = -1
)

// Result is either a token count or the reason counting failed.
type Result struct {
	Count int
	Err   error
}

// OK reports whether the count succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Value returns the count, or Sentinel on failure.
func (r Result) Value() int {
	if r.Err != nil {
		return Sentinel
	}
	return r.Count
}

// Counter resolves and caches one encoder per model.
type Counter struct {
	mu       sync.Mutex
	encoders map[string]*tiktoken.Tiktoken
	resolve  func(model string) (*tiktoken.Tiktoken, error)
}

// NewCounter returns a Counter backed by tiktoken's model table.
func NewCounter() *Counter {
	return &Counter{
		encoders: make(map[string]*tiktoken.Tiktoken),
		resolve:  tiktoken.EncodingForModel,
	}
}

var defaultCounter = NewCounter()

// Count counts text under model using a process-wide Counter.
func Count(text, model string) Result {
	return defaultCounter.Count(text, model)
}

// Count encodes text with the encoding registered for model.
// Special tokens such as <|endoftext|> are disallowed in text, matching
// tiktoken's default, and make the count fail.
func (c *Counter) Count(text, model string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("encode text for model %q: %v", model, r)}
		}
	}()

	enc, err := c.encoder(model)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Count: len(enc.Encode(text, nil, []string{"all"}))}
}

func (c *Counter) encoder(model string) (*tiktoken.Tiktoken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if enc, ok := c.encoders[model]; ok {
		return enc, nil
	}
	enc, err := c.resolve(model)
	if err != nil {
		return nil, fmt.Errorf("resolve encoding for model %q: %w", model, err)
	}
	c.encoders[model] = enc
	return enc, nil
}
