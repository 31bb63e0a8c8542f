// Copyright (c) 2024 Akxen Labs

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	mcp_server "github.com/mark3labs/mcp-go/server"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/pflag"

	"github.com/akxen/nemde-go"
	"github.com/akxen/nemde-go/engine"
	"github.com/akxen/nemde-go/internal/casedb"
)

///////////////////////////////////////////////////////////////////////////////

const serverName = "nemde-go-mcp"
const serverVersion = "1.0.0"

var store *casedb.Store

func main() {
	var dbPath string
	var showHelp bool

	pflag.StringVarP(&dbPath, "db", "d", "", "Casefile store database path (required)")
	pflag.BoolVarP(&showHelp, "help", "h", false, "Show help")
	pflag.Parse()

	if showHelp {
		fmt.Fprintf(os.Stdout, "usage: %s --db <path>\n\nMCP server exposing NEMDE dispatch solves over stdio.\n\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(0)
	}
	if dbPath == "" {
		fmt.Fprintf(os.Stderr, "error: --db is required\n")
		os.Exit(1)
	}

	var err error
	store, err = casedb.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
	defer store.Close()

	mcpServer := mcp_server.NewMCPServer(serverName, serverVersion)
	registerTools(mcpServer)

	if err := mcp_server.ServeStdio(mcpServer); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}

///////////////////////////////////////////////////////////////////////////////

func registerTools(mcpServer *mcp_server.MCPServer) {
	listCasesTool := mcp.NewTool("list_cases",
		mcp.WithDescription("Lists stored NEMDE case ids, optionally filtered by a YYYYMMDD day prefix"),
		mcp.WithString("prefix",
			mcp.Description("Case id prefix to filter on (e.g. 20201101)"),
		),
	)
	mcpServer.AddTool(listCasesTool, listCasesHandler)

	solveCaseTool := mcp.NewTool("solve_case",
		mcp.WithDescription("Runs the NEMDE dispatch model for a stored case and returns the solution document"),
		mcp.WithString("case_id",
			mcp.Required(),
			mcp.Description("Case id in YYYYMMDDNNN form"),
		),
		mcp.WithString("run_mode",
			mcp.Description("Run mode: physical (default) or pricing"),
			mcp.Enum("physical", "pricing"),
		),
		mcp.WithString("solution_format",
			mcp.Description("Solution format: standard (default) or validation"),
			mcp.Enum("standard", "validation"),
		),
	)
	mcpServer.AddTool(solveCaseTool, solveCaseHandler)
}

///////////////////////////////////////////////////////////////////////////////

func listCasesHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix := request.GetString("prefix", "")
	ids, err := store.ListCases(prefix)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	jstr, err := json.Marshal(ids)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(jstr)), nil
}

func solveCaseHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	caseID, err := request.RequireString("case_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	runMode := request.GetString("run_mode", string(nemde.RunMode_Physical))
	format := request.GetString("solution_format", string(nemde.SolutionFormat_Standard))

	eng := &engine.Engine{Store: store}
	input := engine.UserInput{
		CaseID: caseID,
		Options: engine.Options{
			RunMode:        runMode,
			SolutionFormat: format,
		},
	}
	requestBody, err := json.Marshal(&input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := eng.Run(requestBody)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	jstr, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(jstr)), nil
}
