package testutil

import (
	"testing"

	"github.com/pkoukk/tiktoken-go"
)

// RequireEncoding skips the test when the BPE ranks for model cannot be
// loaded. tiktoken-go downloads them on first use; point TIKTOKEN_CACHE_DIR
// at a warm cache to run these tests offline.
func RequireEncoding(t *testing.T, model string) {
	t.Helper()
	if _, err := tiktoken.EncodingForModel(model); err != nil {
		t.Skipf("encoding for %s unavailable (set TIKTOKEN_CACHE_DIR for offline runs): %v", model, err)
	}
}
