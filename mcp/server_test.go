package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/morphnet/internal/analysis"
	"github.com/Benny93/morphnet/internal/config"
	"github.com/Benny93/morphnet/internal/formatives"
	"github.com/Benny93/morphnet/internal/storage"
)

const latinFormatives = `lexeme,stem,NOM.SG,GEN.SG
lupus,['lup'],['us'],['i']
dominus,['domin'],['us'],['i']
rosa,['ros'],['a'],['ae']
puella,['puell'],['a'],['ae']
`

// setupServer runs the pipeline on a small Latin table and serves the results.
func setupServer(t *testing.T) (*Server, config.Paths) {
	t.Helper()

	paths := config.Paths{Root: t.TempDir()}
	require.NoError(t, os.MkdirAll(paths.RawDir(), 0o755))
	require.NoError(t, os.WriteFile(paths.RawFile("latin"), []byte(latinFormatives), 0o644))

	store := storage.NewMemoryStore()
	require.NoError(t, store.Initialize("", false))

	p := &analysis.Pipeline{
		Paths: paths,
		Store: store,
		Sweep: []float64{0.0, 1.0, 50.0},
		Seed:  42,
	}
	result, err := p.Run(context.Background(), []string{"latin"}, []formatives.DataType{formatives.Original}, analysis.AllSteps)
	require.NoError(t, err)
	require.Empty(t, result.Failures)

	meta := result.Meta([]formatives.DataType{formatives.Original}, analysis.AllSteps, p.Sweep, p.Seed)
	require.NoError(t, storage.SaveRunMeta(paths.MetaFile(), meta))

	return NewServer(store, paths, nil), paths
}

func TestServer_ListTools(t *testing.T) {
	t.Parallel()

	s := NewServer(nil, config.Paths{Root: t.TempDir()}, nil)
	tools := s.ListTools()

	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
		assert.NotEmpty(t, tool.Description)
		require.NotNil(t, tool.InputSchema)
		assert.Equal(t, "object", tool.InputSchema.Type)
	}
	assert.Equal(t, []string{
		"morph_list_datasets",
		"morph_graph_stats",
		"morph_communities",
		"morph_lexeme",
		"morph_hierarchy",
	}, names)
}

func TestServer_CallTool(t *testing.T) {
	t.Parallel()

	s, _ := setupServer(t)
	ctx := context.Background()

	t.Run("ListDatasets", func(t *testing.T) {
		out, err := s.CallTool(ctx, "morph_list_datasets", nil)
		require.NoError(t, err)
		assert.Contains(t, out, "- latin")
		assert.Contains(t, out, "**latin_original**: 4 lexemes")
	})

	t.Run("GraphStats", func(t *testing.T) {
		out, err := s.CallTool(ctx, "morph_graph_stats", map[string]any{"language": "latin"})
		require.NoError(t, err)
		assert.Contains(t, out, "# Graph: latin_original")
		assert.Contains(t, out, "**Lexemes:** 4")
	})

	t.Run("GraphStatsMissing", func(t *testing.T) {
		out, err := s.CallTool(ctx, "morph_graph_stats", map[string]any{"language": "latin", "data_type": "allshuffled"})
		require.NoError(t, err)
		assert.Equal(t, "No graph for latin_allshuffled.", out)
	})

	t.Run("CommunityCounts", func(t *testing.T) {
		out, err := s.CallTool(ctx, "morph_communities", map[string]any{"language": "latin"})
		require.NoError(t, err)
		assert.Contains(t, out, "| 0.0 |")
		assert.Contains(t, out, "| 50.0 | 4 | 1 |")
	})

	t.Run("CommunitiesAtResolution", func(t *testing.T) {
		out, err := s.CallTool(ctx, "morph_communities", map[string]any{"language": "latin", "resolution": 50.0})
		require.NoError(t, err)
		assert.Contains(t, out, "at 50.0 (4)")
		assert.Contains(t, out, "(1) lupus")
	})

	t.Run("UnknownResolution", func(t *testing.T) {
		out, err := s.CallTool(ctx, "morph_communities", map[string]any{"language": "latin", "resolution": 0.3})
		require.NoError(t, err)
		assert.Contains(t, out, "No partition at resolution 0.3")
	})

	t.Run("Lexeme", func(t *testing.T) {
		out, err := s.CallTool(ctx, "morph_lexeme", map[string]any{"language": "latin", "lexeme": "rosa"})
		require.NoError(t, err)
		assert.Contains(t, out, "# Lexeme: rosa")
		assert.Contains(t, out, "- **50.0**: alone")
	})

	t.Run("LexemeMissing", func(t *testing.T) {
		out, err := s.CallTool(ctx, "morph_lexeme", map[string]any{"language": "latin", "lexeme": "canis"})
		require.NoError(t, err)
		assert.Contains(t, out, "not found")
	})

	t.Run("Hierarchy", func(t *testing.T) {
		out, err := s.CallTool(ctx, "morph_hierarchy", map[string]any{"language": "latin"})
		require.NoError(t, err)
		assert.Contains(t, out, "| 0.0_1.0 |")
		assert.Contains(t, out, "| 1.0_50.0 | "+analysis.AllSingletonsLabel+" | 4 |")
	})

	t.Run("HierarchyMissing", func(t *testing.T) {
		_, err := s.CallTool(ctx, "morph_hierarchy", map[string]any{"language": "latin", "data_type": "typefreq_shuffled"})
		assert.ErrorContains(t, err, "morphnet hierarchy")
	})

	t.Run("BadArguments", func(t *testing.T) {
		_, err := s.CallTool(ctx, "morph_hierarchy", map[string]any{})
		assert.ErrorContains(t, err, "language required")

		_, err = s.CallTool(ctx, "morph_graph_stats", map[string]any{"language": "latin", "data_type": "all"})
		assert.Error(t, err)

		_, err = s.CallTool(ctx, "morph_lexeme", map[string]any{"language": "latin"})
		assert.ErrorContains(t, err, "lexeme required")
	})

	t.Run("LanguageOutsideDataDir", func(t *testing.T) {
		for _, lang := range []string{"../latin", "latin/../../etc", `..\latin`, ".."} {
			_, err := s.CallTool(ctx, "morph_hierarchy", map[string]any{"language": lang})
			assert.ErrorIs(t, err, formatives.ErrInvalidLanguage, lang)
		}
	})

	t.Run("UnknownTool", func(t *testing.T) {
		_, err := s.CallTool(ctx, "morph_cypher", nil)
		assert.ErrorContains(t, err, "unknown tool")
	})
}

func TestServer_NoGraphStore(t *testing.T) {
	t.Parallel()

	s := NewServer(nil, config.Paths{Root: t.TempDir()}, nil)

	out, err := s.CallTool(context.Background(), "morph_graph_stats", map[string]any{"language": "latin"})
	require.NoError(t, err)
	assert.Contains(t, out, "No graphs built yet")

	out, err = s.CallTool(context.Background(), "morph_list_datasets", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "No raw formatives directory")

	_, err = s.CallTool(context.Background(), "morph_communities", map[string]any{"language": "latin"})
	assert.ErrorContains(t, err, "morphnet detect")
}

func TestServer_ReadResource(t *testing.T) {
	t.Parallel()

	s, paths := setupServer(t)
	ctx := context.Background()

	overview, err := s.ReadResource(ctx, "morph://overview")
	require.NoError(t, err)
	assert.Contains(t, overview, paths.Root)
	assert.Contains(t, overview, "**Languages:** 1")
	assert.Contains(t, overview, "**Graphs:** 1")
	assert.Contains(t, overview, "- Resolutions: 0.0 to 50.0 (3)")

	schema, err := s.ReadResource(ctx, "morph://schema")
	require.NoError(t, err)
	assert.Contains(t, schema, "`exponent`")

	_, err = s.ReadResource(ctx, "morph://dead-code")
	assert.Error(t, err)

	empty := NewServer(nil, config.Paths{Root: t.TempDir()}, nil)
	overview, err = empty.ReadResource(ctx, "morph://overview")
	require.NoError(t, err)
	assert.Contains(t, overview, "No pipeline run recorded")
}

func TestServer_Run(t *testing.T) {
	t.Parallel()

	s, _ := setupServer(t)

	requests := []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"morph_hierarchy","arguments":{"language":"latin"}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"resources/read","params":{"uri":"morph://schema"}}`,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call"}`,
		`{"jsonrpc":"2.0","id":6,"method":"prompts/list"}`,
	}
	var out bytes.Buffer
	err := s.Run(context.Background(), strings.NewReader(strings.Join(requests, "\n")+"\n"), &out)
	require.NoError(t, err)

	var responses []map[string]any
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}
	require.Len(t, responses, 6)

	initResult := responses[0]["result"].(map[string]any)
	assert.Equal(t, "morphnet", initResult["serverInfo"].(map[string]any)["name"])

	tools := responses[1]["result"].(map[string]any)["tools"].([]any)
	assert.Len(t, tools, 5)

	content := responses[2]["result"].(map[string]any)["content"].([]any)
	assert.Contains(t, content[0].(map[string]any)["text"], "# Hierarchy: latin_original")

	contents := responses[3]["result"].(map[string]any)["contents"].([]any)
	assert.Equal(t, "morph://schema", contents[0].(map[string]any)["uri"])

	assert.EqualValues(t, -32602, responses[4]["error"].(map[string]any)["code"])
	assert.EqualValues(t, -32601, responses[5]["error"].(map[string]any)["code"])
}

func TestServer_RunRejectsNilStreams(t *testing.T) {
	t.Parallel()

	s := NewServer(nil, config.Paths{}, nil)
	assert.Error(t, s.Run(context.Background(), nil, nil))
}
