package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/lazypower/rhythm/internal/catalogue"
	"github.com/lazypower/rhythm/internal/curator"
	"github.com/lazypower/rhythm/internal/engine"
	"github.com/lazypower/rhythm/internal/model"
	"github.com/lazypower/rhythm/internal/rhythm"
	"github.com/lazypower/rhythm/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connect starts a server over in-memory transports and returns a
// connected client session.
func connect(t *testing.T) (*mcp.ClientSession, *engine.Engine) {
	t.Helper()

	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cat, err := catalogue.Default()
	require.NoError(t, err)
	cur, err := curator.New(cat, curator.WithChance(curator.NewSeededChance(3), 0))
	require.NoError(t, err)
	eng := engine.New(db, rhythm.NewReader(db), cur, engine.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	serverT, clientT := mcp.NewInMemoryTransports()
	done := make(chan error, 1)
	go func() { done <- New(eng, "test", nil).Run(ctx, serverT) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	cctx, ccancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer ccancel()
	session, err := client.Connect(cctx, clientT, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		session.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop after cancel")
		}
	})
	return session, eng
}

func call(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func TestToolsListed(t *testing.T) {
	session, _ := connect(t)

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"compute_rhythm", "curate_practice", "record_moment", "record_state", "load_profile",
	}, names)
}

func TestCheckInThenCurate(t *testing.T) {
	session, eng := connect(t)
	_, err := eng.CreateSubject(context.Background(), model.Subject{ID: "s1", Primary: model.Sage})
	require.NoError(t, err)

	res := call(t, session, "record_moment", map[string]any{
		"subject_id":  "s1",
		"category":    "insight",
		"essence":     "the question was the answer",
		"occurred_at": "2026-10-10T20:00:00Z",
	})
	require.False(t, res.IsError, text(t, res))
	var m model.Moment
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &m))
	assert.Equal(t, model.CategoryInsight, m.Category)

	res = call(t, session, "record_state", map[string]any{
		"subject_id": "s1", "clarity": 5, "peace": 6, "vitality": 5, "connection": 6, "purpose": 5,
	})
	require.False(t, res.IsError, text(t, res))

	res = call(t, session, "compute_rhythm", map[string]any{"subject_id": "s1"})
	require.False(t, res.IsError, text(t, res))
	var rp model.RhythmProfile
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &rp))
	assert.Equal(t, model.TrendStable, rp.Energy.Trend)

	res = call(t, session, "curate_practice", map[string]any{"subject_id": "s1"})
	require.False(t, res.IsError, text(t, res))
	var p model.Practice
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &p))
	assert.NotEmpty(t, p.ID)
	assert.NotEmpty(t, p.Instructions)

	res = call(t, session, "load_profile", map[string]any{"subject_id": "s1"})
	require.False(t, res.IsError, text(t, res))
	var agg model.Profile
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &agg))
	assert.Len(t, agg.RecentMoments, 1)
	require.NotNil(t, agg.State)
	assert.Equal(t, 6, agg.State.Peace)
}

func TestToolErrors(t *testing.T) {
	session, eng := connect(t)
	_, err := eng.CreateSubject(context.Background(), model.Subject{ID: "s1", Primary: model.Healer})
	require.NoError(t, err)

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"unknown subject", "curate_practice", map[string]any{"subject_id": "ghost"}, "not found"},
		{"bad category", "record_moment", map[string]any{"subject_id": "s1", "category": "nap", "essence": "zz"}, "unknown moment category"},
		{"bad timestamp", "record_moment", map[string]any{"subject_id": "s1", "category": "dream", "essence": "zz", "occurred_at": "last night"}, "occurred_at"},
		{"state out of range", "record_state", map[string]any{"subject_id": "s1", "clarity": 11, "peace": 1, "vitality": 1, "connection": 1, "purpose": 1}, "clarity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, session, tt.tool, tt.args)
			assert.True(t, res.IsError)
			assert.True(t, strings.Contains(text(t, res), tt.want), "got %q", text(t, res))
		})
	}
}
