package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"logreader/internal/report"
	"logreader/internal/resolver"
	"logreader/internal/search"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing log search tools over stdio",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol.
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	s := mcpserver.NewMCPServer("logreader", "1.0.0", mcpserver.WithToolCapabilities(false))
	s.AddTool(searchLogsTool(), makeSearchLogsHandler(a))
	s.AddTool(resolveProductTool(), makeResolveProductHandler(a))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchLogsTool() mcp.Tool {
	return mcp.NewTool("search_logs",
		mcp.WithDescription("List the test logs recorded for a unit serial number, newest first, with the index line describing each log."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("sn",
			mcp.Required(),
			mcp.Description("Unit serial number"),
		),
		mcp.WithString("pn",
			mcp.Description("Product code. Resolved from the serial number when omitted."),
		),
	)
}

func resolveProductTool() mcp.Tool {
	return mcp.NewTool("resolve_product",
		mcp.WithDescription("Look up the product code of a unit serial number."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("sn",
			mcp.Required(),
			mcp.Description("Unit serial number"),
		),
	)
}

func makeSearchLogsHandler(a *app) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sn := req.GetString("sn", "")
		if sn == "" {
			return mcp.NewToolResultError("sn is required"), nil
		}
		pn := req.GetString("pn", "")
		if pn == "" {
			var err error
			pn, err = a.productCode(ctx, sn)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("%v. Pass pn explicitly.", err)), nil
			}
		}

		cands, err := a.searcher.Search(ctx, a.cfg.Search.Roots, pn, sn)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		search.SortByRecency(cands)
		a.recordSearch(sn, pn, len(cands))

		return mcp.NewToolResultText(report.Markdown(report.Query{SN: sn, PN: pn}, cands)), nil
	}
}

func makeResolveProductHandler(a *app) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sn := req.GetString("sn", "")
		if sn == "" {
			return mcp.NewToolResultError("sn is required"), nil
		}
		if a.resolver == nil {
			return mcp.NewToolResultError(resolver.ErrUnavailable.Error()), nil
		}
		pn, err := a.resolver.Resolve(ctx, sn)
		if errors.Is(err, resolver.ErrNotResolved) {
			return mcp.NewToolResultText(fmt.Sprintf("No product code is recorded for SN %s.", sn)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("resolve failed: %v", err)), nil
		}
		return mcp.NewToolResultText(pn), nil
	}
}
