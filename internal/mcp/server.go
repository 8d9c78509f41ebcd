package mcp

import (
	"context"
	"encoding/json"

	"flowdash/internal/config"
	"flowdash/internal/dataset"
	"flowdash/internal/filter"
	"flowdash/internal/stages"
	"flowdash/internal/stats"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Server exposes the sprint and delivery analytics as MCP tools.
type Server struct {
	cfg      *config.AppConfig
	cache    *dataset.Cache
	settings *stages.Settings
	filters  *filter.Service
	engine   *stats.DurationEngine
	dora     *stats.DoraCalculator
	version  string
}

// NewServer creates a new MCP server over the given dataset cache.
func NewServer(cfg *config.AppConfig, cache *dataset.Cache, settings *stages.Settings, version string) *Server {
	if cfg == nil {
		cfg = &config.AppConfig{}
	}
	return &Server{
		cfg:      cfg,
		cache:    cache,
		settings: settings,
		filters:  filter.NewService(),
		engine:   stats.NewDurationEngine(),
		dora:     stats.NewDoraCalculator(),
		version:  version,
	}
}

// Start registers the tools and serves them over stdio until ctx is done
// or the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "flowdash", Version: s.version}, nil)
	if err := s.register(server); err != nil {
		return err
	}

	log.Info().Str("version", s.version).Msg("Serving MCP over stdio")
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) register(server *mcpsdk.Server) error {
	for _, t := range s.tools() {
		schema, err := t.schema()
		if err != nil {
			return err
		}
		server.AddTool(&mcpsdk.Tool{
			Name:        t.name,
			Description: t.description,
			InputSchema: schema,
		}, s.handler(t))
	}
	return nil
}

func (s *Server) handler(t tool) mcpsdk.ToolHandler {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var args json.RawMessage
		if req.Params != nil {
			args = req.Params.Arguments
		}

		data, err := t.call(ctx, args)
		if err != nil {
			log.Warn().Err(err).Str("tool", t.name).Msg("Tool call failed")
			return &mcpsdk.CallToolResult{
				IsError: true,
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
			}, nil
		}

		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: s.formatResult(data)}},
		}, nil
	}
}

func (s *Server) formatResult(data any) string {
	out, _ := json.MarshalIndent(data, "", "  ")
	return string(out)
}
