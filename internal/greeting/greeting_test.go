package greeting

import (
	"context"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/HerbHall/toolshed/internal/testutil"
	"github.com/HerbHall/toolshed/internal/toolserver"
)

func TestHello(t *testing.T) {
	for i := 0; i < 3; i++ {
		if got := Hello(); got != "Hello, world!" {
			t.Fatalf("Hello() = %q, want %q", got, "Hello, world!")
		}
	}
}

func TestTool_declaration(t *testing.T) {
	tool := Tool()

	if tool.Name != "hello" {
		t.Errorf("Name = %q, want %q", tool.Name, "hello")
	}
	if tool.Description != "A simple tool that returns a greeting." {
		t.Errorf("Description = %q", tool.Description)
	}
	if len(tool.Params) != 0 {
		t.Errorf("Params = %v, want none", tool.Params)
	}
	if err := tool.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	got, err := tool.Handler(context.Background(), nil)
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	if got != Message {
		t.Errorf("Handler() = %q, want %q", got, Message)
	}
}

func TestTool_over_protocol(t *testing.T) {
	ctx := context.Background()
	srv := toolserver.New(toolserver.Options{Name: "hello-test", Version: "0.0.0"}, nil)
	if err := srv.Register(Tool()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	cs := testutil.ConnectClient(t, srv)

	tests := []struct {
		name string
		args any
	}{
		{name: "no_arguments", args: nil},
		{name: "empty_arguments", args: map[string]any{}},
		{name: "extra_arguments_ignored", args: map[string]any{"name": "gopher"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{Name: "hello", Arguments: tc.args})
			if err != nil {
				t.Fatalf("CallTool: %v", err)
			}
			if res.IsError {
				t.Fatal("unexpected error result")
			}
			if len(res.Content) != 1 {
				t.Fatalf("content count = %d, want 1", len(res.Content))
			}
			if got := testutil.ResultText(t, res); got != "Hello, world!" {
				t.Errorf("text = %q, want %q", got, "Hello, world!")
			}
		})
	}
}
