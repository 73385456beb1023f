package msgchan

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/lyricsroman/kit"
	"github.com/hazyhaar/lyricsroman/romanize"
)

type romanizeTextReq struct {
	Text string `json:"text"`
}

// RegisterMCP exposes h as the romanize_text tool. A failed response is
// reported as a tool error carrying the typed reason.
func RegisterMCP(srv *mcp.Server, h romanize.Handler, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	tool := &mcp.Tool{
		Name:        "romanize_text",
		Description: "Romanize the non-Latin text of song lyrics (Japanese, Korean, Chinese, Russian, Hindi, Punjabi, Arabic) through the translation service.",
		InputSchema: kit.InputSchema(map[string]any{
			"text": map[string]any{"type": "string", "description": "Non-Latin text, one run per line"},
		}, []string{"text"}),
	}

	inner := endpointFor(h, logger)
	endpoint := func(ctx context.Context, req any) (any, error) {
		out, err := inner(ctx, req)
		if err != nil {
			return nil, err
		}
		resp := out.(romanize.Response)
		if !resp.Success {
			return nil, errors.New(resp.Error)
		}
		return resp, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r romanizeTextReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		rr := romanize.NewRequest(r.Text)
		return &kit.MCPDecodeResult{Request: &rr}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
