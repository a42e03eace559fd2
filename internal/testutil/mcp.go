// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Connector starts a server-side MCP session on a transport.
type Connector interface {
	Connect(ctx context.Context, transport sdkmcp.Transport) (*sdkmcp.ServerSession, error)
}

// ConnectClient joins a test client to srv over in-memory transports.
// Both sessions are closed when the test ends.
func ConnectClient(t *testing.T, srv Connector) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()

	ss, err := srv.Connect(ctx, serverTransport)
	if err != nil {
		t.Fatalf("server Connect: %v", err)
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client Connect: %v", err)
	}
	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs
}

// ResultText returns the text of the first content item of res.
func ResultText(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("expected result with content")
	}
	tc, ok := res.Content[0].(*sdkmcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want *TextContent", res.Content[0])
	}
	return tc.Text
}
