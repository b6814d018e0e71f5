// Package mcp provides the MCP (Model Context Protocol) server for morphnet.
//
// The server exposes built graphs, community partitions and hierarchy reports
// as read-only tools and resources over a stdio JSON-RPC transport.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/Benny93/morphnet/internal/config"
	"github.com/Benny93/morphnet/internal/formatives"
	"github.com/Benny93/morphnet/internal/graph"
	"github.com/Benny93/morphnet/internal/storage"
)

// Version is reported in the initialize handshake.
var Version = "dev"

// GraphReader is the read side of a storage.GraphStore.
type GraphReader interface {
	LoadGraph(ctx context.Context, dataset string) (*graph.BipartiteGraph, error)
	GraphInfo(ctx context.Context, dataset string) (storage.GraphInfo, error)
	ListGraphs(ctx context.Context) ([]storage.GraphInfo, error)
}

// Server represents the MCP server.
type Server struct {
	graphs GraphReader
	paths  config.Paths
	logger *zap.Logger
	server *mcp.Server
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server. graphs may be nil when no graph store
// exists yet; graph tools then report that nothing has been built.
func NewServer(graphs GraphReader, paths config.Paths, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		graphs: graphs,
		paths:  paths,
		logger: logger,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "morphnet",
		Version: Version,
	}, nil)

	return s
}

var datasetProperties = map[string]*jsonschema.Schema{
	"language":  {Type: "string", Description: "Language name, e.g. latin"},
	"data_type": {Type: "string", Description: "original, typefreq_shuffled or allshuffled (default original)"},
}

func withDatasetProperties(extra map[string]*jsonschema.Schema) map[string]*jsonschema.Schema {
	props := make(map[string]*jsonschema.Schema, len(datasetProperties)+len(extra))
	for k, v := range datasetProperties {
		props[k] = v
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "morph_list_datasets",
			Description: "List languages with raw formatives and every dataset with a built graph.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
		{
			Name:        "morph_graph_stats",
			Description: "Node, edge and projection statistics of a dataset's bipartite lexeme-exponent graph.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: withDatasetProperties(nil),
				Required:   []string{"language"},
			},
		},
		{
			Name:        "morph_communities",
			Description: "Lexeme communities of a dataset at one resolution, or community counts per resolution when no resolution is given.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: withDatasetProperties(map[string]*jsonschema.Schema{
					"resolution": {Type: "number", Description: "Resolution, e.g. 0.5"},
				}),
				Required: []string{"language"},
			},
		},
		{
			Name:        "morph_lexeme",
			Description: "Community of a lexeme at every resolution, with the other members of that community.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: withDatasetProperties(map[string]*jsonschema.Schema{
					"lexeme": {Type: "string", Description: "Lexeme id"},
				}),
				Required: []string{"language", "lexeme"},
			},
		},
		{
			Name:        "morph_hierarchy",
			Description: "Hierarchy report of a dataset: average nesting coefficient per adjacent resolution pair.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: withDatasetProperties(nil),
				Required:   []string{"language"},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "morph://overview",
			Name:        "Results Overview",
			Description: "Languages, built graphs and the last pipeline run",
			MimeType:    "text/plain",
		},
		{
			URI:         "morph://schema",
			Name:        "Graph Schema",
			Description: "Description of the morphnet graph model and result files",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	s.logger.Debug("tool call", zap.String("tool", name))

	switch name {
	case "morph_list_datasets":
		return s.handleListDatasets(ctx)
	case "morph_graph_stats":
		lang, dt, err := datasetArgs(args)
		if err != nil {
			return "", err
		}
		return s.handleGraphStats(ctx, lang, dt)
	case "morph_communities":
		lang, dt, err := datasetArgs(args)
		if err != nil {
			return "", err
		}
		res, ok := args["resolution"].(float64)
		return s.handleCommunities(lang, dt, res, ok)
	case "morph_lexeme":
		lang, dt, err := datasetArgs(args)
		if err != nil {
			return "", err
		}
		lexeme, _ := args["lexeme"].(string)
		if lexeme == "" {
			return "", fmt.Errorf("lexeme required")
		}
		return s.handleLexeme(lang, dt, lexeme)
	case "morph_hierarchy":
		lang, dt, err := datasetArgs(args)
		if err != nil {
			return "", err
		}
		return s.handleHierarchy(lang, dt)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "morph://overview":
		return s.getOverview(ctx), nil
	case "morph://schema":
		return getSchema(), nil
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	// MCP framing is one compact JSON message per line.
	encoder := json.NewEncoder(stdout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("dropping malformed request", zap.Error(err))
			continue
		}

		// Notifications carry no id and get no response.
		if _, ok := req["id"]; !ok {
			continue
		}

		resp := s.handleRequest(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "ping":
		return result(id, map[string]any{})
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return result(id, map[string]any{
		"protocolVersion": "2024-11-05",
		"serverInfo": map[string]any{
			"name":    "morphnet",
			"version": Version,
		},
		"capabilities": map[string]any{
			"tools": map[string]any{
				"listChanged": false,
			},
			"resources": map[string]any{
				"listChanged": false,
			},
		},
	})
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		var schemaMap map[string]any
		if schema, err := json.Marshal(tool.InputSchema); err == nil {
			_ = json.Unmarshal(schema, &schemaMap)
		}

		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": schemaMap,
		}
	}
	return result(id, map[string]any{"tools": toolList})
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	text, err := s.CallTool(ctx, name, args)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return result(id, map[string]any{
		"content": []map[string]any{
			{
				"type": "text",
				"text": text,
			},
		},
	})
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}
	return result(id, map[string]any{"resources": resourceList})
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)

	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return result(id, map[string]any{
		"contents": []map[string]any{
			{
				"uri":      uri,
				"mimeType": "text/plain",
				"text":     content,
			},
		},
	})
}

// Tool Handlers

func datasetArgs(args map[string]any) (string, formatives.DataType, error) {
	lang, _ := args["language"].(string)
	if lang == "" {
		return "", "", fmt.Errorf("language required")
	}
	if err := formatives.CheckLanguageName(lang); err != nil {
		return "", "", err
	}
	selector, _ := args["data_type"].(string)
	if selector == "" {
		return lang, formatives.Original, nil
	}
	if selector == "all" {
		return "", "", fmt.Errorf("data_type must name a single data type")
	}
	dts, err := formatives.ParseDataTypes(selector)
	if err != nil {
		return "", "", err
	}
	return lang, dts[0], nil
}

func (s *Server) handleListDatasets(ctx context.Context) (string, error) {
	var sb strings.Builder
	sb.WriteString("# Datasets\n\n")

	languages, err := formatives.DiscoverLanguages(s.paths.RawDir())
	switch {
	case err != nil:
		sb.WriteString(fmt.Sprintf("No raw formatives directory at `%s`.\n", s.paths.RawDir()))
	case len(languages) == 0:
		sb.WriteString("No languages found.\n")
	default:
		sb.WriteString(fmt.Sprintf("## Languages (%d)\n\n", len(languages)))
		for _, lang := range languages {
			sb.WriteString(fmt.Sprintf("- %s\n", lang))
		}
	}

	if s.graphs == nil {
		sb.WriteString("\nNo graphs built yet. Run `morphnet build` first.\n")
		return sb.String(), nil
	}

	infos, err := s.graphs.ListGraphs(ctx)
	if err != nil {
		return "", fmt.Errorf("listing graphs: %w", err)
	}
	sb.WriteString(fmt.Sprintf("\n## Graphs (%d)\n\n", len(infos)))
	for _, info := range infos {
		sb.WriteString(fmt.Sprintf("- **%s**: %d lexemes, %d exponents, %d edges\n",
			info.Dataset, info.Lexemes, info.Exponents, info.Edges))
	}
	return sb.String(), nil
}

func (s *Server) handleGraphStats(ctx context.Context, lang string, dt formatives.DataType) (string, error) {
	if s.graphs == nil {
		return "No graphs built yet. Run `morphnet build` first.", nil
	}

	dataset := storage.DatasetKey(lang, string(dt))
	g, err := s.graphs.LoadGraph(ctx, dataset)
	if errors.Is(err, storage.ErrGraphNotFound) {
		return fmt.Sprintf("No graph for %s.", dataset), nil
	}
	if err != nil {
		return "", err
	}
	info, err := s.graphs.GraphInfo(ctx, dataset)
	if err != nil {
		return "", err
	}

	proj := graph.ProjectLexemes(g)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Graph: %s\n\n", dataset))
	sb.WriteString(fmt.Sprintf("**Lexemes:** %d\n", info.Lexemes))
	sb.WriteString(fmt.Sprintf("**Exponents:** %d\n", info.Exponents))
	sb.WriteString(fmt.Sprintf("**Edges:** %d\n", info.Edges))
	sb.WriteString(fmt.Sprintf("**Lexeme projection edges:** %d\n", len(proj.Edges)))
	if info.RunID != "" {
		sb.WriteString(fmt.Sprintf("**Run:** %s\n", info.RunID))
	}
	sb.WriteString(fmt.Sprintf("**Saved:** %s\n", info.SavedAt.Format("2006-01-02 15:04:05 MST")))
	return sb.String(), nil
}

func (s *Server) loadCommunities(lang string, dt formatives.DataType) (graph.CommunityMap, error) {
	communities, err := storage.LoadPartitions(s.paths.CommunitiesFile(lang, dt))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no communities for %s. Run `morphnet detect` first", storage.DatasetKey(lang, string(dt)))
	}
	return communities, err
}

func (s *Server) handleCommunities(lang string, dt formatives.DataType, resolution float64, hasResolution bool) (string, error) {
	communities, err := s.loadCommunities(lang, dt)
	if err != nil {
		return "", err
	}
	dataset := storage.DatasetKey(lang, string(dt))

	var sb strings.Builder
	if !hasResolution {
		sb.WriteString(fmt.Sprintf("# Communities: %s\n\n", dataset))
		sb.WriteString("| Resolution | Communities | Largest |\n")
		sb.WriteString("|------------|-------------|---------|\n")
		for _, r := range communities.Resolutions() {
			largest := 0
			for _, size := range communities[r].Sizes() {
				largest = max(largest, size)
			}
			sb.WriteString(fmt.Sprintf("| %s | %d | %d |\n", graph.FormatResolution(r), len(communities[r]), largest))
		}
		return sb.String(), nil
	}

	partition, ok := communities[resolution]
	if !ok {
		return fmt.Sprintf("No partition at resolution %s for %s.", graph.FormatResolution(resolution), dataset), nil
	}

	sb.WriteString(fmt.Sprintf("# Communities: %s at %s (%d)\n\n", dataset, graph.FormatResolution(resolution), len(partition)))
	for i, c := range partition {
		sb.WriteString(fmt.Sprintf("%d. (%d) %s\n", i+1, len(c), strings.Join(c, ", ")))
	}
	return sb.String(), nil
}

func (s *Server) handleLexeme(lang string, dt formatives.DataType, lexeme string) (string, error) {
	communities, err := s.loadCommunities(lang, dt)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Lexeme: %s (%s)\n\n", lexeme, storage.DatasetKey(lang, string(dt))))

	found := false
	for _, r := range communities.Resolutions() {
		partition := communities[r]
		idx, ok := partition.MemberIndex()[lexeme]
		if !ok {
			continue
		}
		found = true

		var others []string
		for _, member := range partition[idx] {
			if member != lexeme {
				others = append(others, member)
			}
		}
		if len(others) == 0 {
			sb.WriteString(fmt.Sprintf("- **%s**: alone\n", graph.FormatResolution(r)))
			continue
		}
		sb.WriteString(fmt.Sprintf("- **%s**: with %s\n", graph.FormatResolution(r), strings.Join(others, ", ")))
	}

	if !found {
		return fmt.Sprintf("Lexeme '%s' not found in any partition.", lexeme), nil
	}
	return sb.String(), nil
}

func (s *Server) handleHierarchy(lang string, dt formatives.DataType) (string, error) {
	dataset := storage.DatasetKey(lang, string(dt))
	rows, err := storage.LoadHierarchyReport(s.paths.HierarchyFile(lang, dt))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("no hierarchy report for %s. Run `morphnet hierarchy` first", dataset)
	}
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Hierarchy: %s\n\n", dataset))
	sb.WriteString("| Pair | Average | Communities (upper) | Communities (lower) |\n")
	sb.WriteString("|------|---------|---------------------|---------------------|\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d |\n", row.Pair, row.Average, row.NCommsUpper, row.NCommsLower))
	}
	return sb.String(), nil
}

// Resource Handlers

func (s *Server) getOverview(ctx context.Context) string {
	var sb strings.Builder
	sb.WriteString("# morphnet Overview\n\n")
	sb.WriteString(fmt.Sprintf("**Data directory:** %s\n", s.paths.Root))

	if languages, err := formatives.DiscoverLanguages(s.paths.RawDir()); err == nil {
		sb.WriteString(fmt.Sprintf("**Languages:** %d\n", len(languages)))
	}

	if s.graphs != nil {
		if infos, err := s.graphs.ListGraphs(ctx); err == nil {
			sb.WriteString(fmt.Sprintf("**Graphs:** %d\n", len(infos)))
		}
	}

	meta, err := storage.LoadRunMeta(s.paths.MetaFile())
	if err != nil {
		sb.WriteString("\nNo pipeline run recorded.\n")
		return sb.String()
	}

	sb.WriteString("\n## Last Run\n\n")
	sb.WriteString(fmt.Sprintf("- Run: %s\n", meta.RunID))
	sb.WriteString(fmt.Sprintf("- Finished: %s\n", meta.FinishedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("- Steps: %s\n", strings.Join(meta.Steps, ", ")))
	sb.WriteString(fmt.Sprintf("- Datasets: %d\n", len(meta.Datasets)))
	if len(meta.Resolutions) > 0 {
		sb.WriteString(fmt.Sprintf("- Resolutions: %s to %s (%d)\n",
			graph.FormatResolution(meta.Resolutions[0]),
			graph.FormatResolution(meta.Resolutions[len(meta.Resolutions)-1]),
			len(meta.Resolutions)))
	}
	sb.WriteString(fmt.Sprintf("- Seed: %d\n", meta.Seed))
	if len(meta.Failures) > 0 {
		sb.WriteString(fmt.Sprintf("\n### Failures (%d)\n\n", len(meta.Failures)))
		for _, f := range meta.Failures {
			sb.WriteString(fmt.Sprintf("- %s\n", f))
		}
	}
	return sb.String()
}

func getSchema() string {
	var sb strings.Builder
	sb.WriteString("# morphnet Graph Schema\n\n")
	sb.WriteString("## Node Partitions\n\n")
	sb.WriteString("| Partition | Id | Description |\n")
	sb.WriteString("|-----------|----|-------------|\n")
	sb.WriteString("| `lexeme` | lexeme id | One inflected word, a row of the formatives table |\n")
	sb.WriteString("| `exponent` | `<triphone>-<CELL>[_n]` | A triphone of an exponent, tagged with its paradigm cell |\n")
	sb.WriteString("\n## Edges\n\n")
	sb.WriteString("Every edge joins a lexeme to one of its tagged exponents. The weight is\n")
	sb.WriteString("1 / (number of exponents the lexeme has in that cell).\n")
	sb.WriteString("\n## Result Files\n\n")
	sb.WriteString("| File | Content |\n")
	sb.WriteString("|------|---------|\n")
	sb.WriteString("| `results/community_detection/community_detection_<lang>_<type>.json` | Resolution to list of lexeme communities |\n")
	sb.WriteString("| `results/hierarchy/<lang>_<type>_hierarchy_average.csv` | Keys, Averages, ncomms_upper, ncomms_lower |\n")
	sb.WriteString("| `results/meta.json` | Last pipeline run |\n")
	return sb.String()
}

// Helper functions

func result(id any, payload map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  payload,
	}
}

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}
