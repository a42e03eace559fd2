package tokens

import (
	"errors"
	"strings"
	"testing"

	"github.com/pkoukk/tiktoken-go"

	"github.com/HerbHall/toolshed/internal/testutil"
)

func TestCount_reference_values(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		model string
		want  int
	}{
		{name: "default_text_gpt4", text: DefaultText, model: DefaultModel, want: 4},
		{name: "gpt4o_o200k", text: "Hello, World!", model: "gpt-4o", want: 4},
		{name: "gpt35_shares_cl100k", text: "Hello, World!", model: "gpt-3.5-turbo", want: 4},
		{name: "empty_text", text: "", model: DefaultModel, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			testutil.RequireEncoding(t, tc.model)
			res := Count(tc.text, tc.model)
			if !res.OK() {
				t.Fatalf("Count: %v", res.Err)
			}
			if res.Value() != tc.want {
				t.Errorf("Count(%q, %q) = %d, want %d", tc.text, tc.model, res.Value(), tc.want)
			}
		})
	}
}

func TestCount_unknown_model(t *testing.T) {
	res := Count("Hello, World!", "not-a-real-model")

	if res.OK() {
		t.Fatal("expected failure for unknown model")
	}
	if res.Value() != -1 {
		t.Errorf("Value() = %d, want -1", res.Value())
	}
	if !strings.Contains(res.Err.Error(), "not-a-real-model") {
		t.Errorf("error %q should name the model", res.Err)
	}
}

func TestCount_disallowed_special_token(t *testing.T) {
	testutil.RequireEncoding(t, DefaultModel)
	res := Count("before <|endoftext|> after", DefaultModel)

	if res.OK() {
		t.Fatal("expected failure for text containing a special token")
	}
	if res.Value() != Sentinel {
		t.Errorf("Value() = %d, want %d", res.Value(), Sentinel)
	}
}

func TestCounter_caches_encoder(t *testing.T) {
	testutil.RequireEncoding(t, DefaultModel)
	calls := 0
	c := NewCounter()
	c.resolve = func(model string) (*tiktoken.Tiktoken, error) {
		calls++
		return tiktoken.EncodingForModel(model)
	}

	for i := 0; i < 3; i++ {
		if res := c.Count("cache me", DefaultModel); !res.OK() {
			t.Fatalf("Count: %v", res.Err)
		}
	}
	if calls != 1 {
		t.Errorf("resolve called %d times, want 1", calls)
	}
}

func TestCounter_resolve_failure_not_cached(t *testing.T) {
	errOffline := errors.New("offline")
	calls := 0
	c := NewCounter()
	c.resolve = func(string) (*tiktoken.Tiktoken, error) {
		calls++
		return nil, errOffline
	}

	for i := 0; i < 2; i++ {
		res := c.Count("text", DefaultModel)
		if !errors.Is(res.Err, errOffline) {
			t.Fatalf("Err = %v, want %v", res.Err, errOffline)
		}
	}
	if calls != 2 {
		t.Errorf("resolve called %d times, want 2", calls)
	}
}

func TestResult(t *testing.T) {
	ok := Result{Count: 7}
	if !ok.OK() || ok.Value() != 7 {
		t.Errorf("ok result = %+v, Value() = %d", ok, ok.Value())
	}

	failed := Result{Count: 7, Err: errors.New("nope")}
	if failed.OK() || failed.Value() != Sentinel {
		t.Errorf("failed result Value() = %d, want %d", failed.Value(), Sentinel)
	}
}
