package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	endpoint := flag.String("endpoint", "http://localhost:8080/mcp/stream", "MCP streamable HTTP endpoint")
	trigger := flag.Bool("trigger", false, "also run a sync pass through sync_trigger")
	token := flag.String("token", "", "operator token sent as a bearer credential")
	flag.Parse()

	ctx := context.Background()

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "job-sync-test-client",
		Version: "0.1.0",
	}, nil)

	transport := &mcp.StreamableClientTransport{Endpoint: *endpoint}
	if *token != "" {
		transport.HTTPClient = &http.Client{Transport: bearer{token: *token, base: http.DefaultTransport}}
	}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = session.Close() }()

	log.Printf("Connected to server (session ID: %s)\n", session.ID())

	testListTools(ctx, session)
	testSyncStats(ctx, session)
	if *trigger {
		testSyncTrigger(ctx, session)
		testSyncStats(ctx, session)
	}

	fmt.Println("\nAll tests completed")
}

func testListTools(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("\nTEST: list tools")

	res, err := session.ListTools(ctx, nil)
	if err != nil {
		log.Printf("list tools failed: %v", err)
		return
	}
	for _, t := range res.Tools {
		fmt.Printf("  %s: %s\n", t.Name, t.Description)
	}
}

func testSyncStats(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("\nTEST: sync_stats")

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "sync_stats", Arguments: map[string]any{}})
	if err != nil {
		log.Printf("sync_stats failed: %v", err)
		return
	}

	printResult(result)
	fmt.Println("sync_stats passed")
}

func testSyncTrigger(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("\nTEST: sync_trigger")

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "sync_trigger", Arguments: map[string]any{}})
	if err != nil {
		log.Printf("sync_trigger failed: %v", err)
		return
	}

	printResult(result)
	if result.IsError {
		fmt.Println("sync_trigger reported an error (a pass may already be running)")
		return
	}
	fmt.Println("sync_trigger passed")
}

func printResult(res *mcp.CallToolResult) {
	for _, c := range res.Content {
		if txt, ok := c.(*mcp.TextContent); ok {
			fmt.Println(txt.Text)
		}
	}
}

type bearer struct {
	token string
	base  http.RoundTripper
}

func (b bearer) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(req)
}
