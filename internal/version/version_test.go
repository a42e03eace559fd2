package version

import (
	"strings"
	"testing"
)

func TestShort_default(t *testing.T) {
	if got := Short(); got != "dev" {
		t.Errorf("Short() = %q, want %q", got, "dev")
	}
}

func TestInfo_includes_version_and_commit(t *testing.T) {
	old := GitCommit
	GitCommit = "abc1234"
	t.Cleanup(func() { GitCommit = old })

	info := Info()
	if !strings.Contains(info, "dev") {
		t.Errorf("Info() = %q, missing version", info)
	}
	if !strings.Contains(info, "abc1234") {
		t.Errorf("Info() = %q, missing commit", info)
	}
}
