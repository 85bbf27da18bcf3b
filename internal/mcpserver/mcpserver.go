// Package mcpserver exposes the engine as MCP tools so an agent can check
// a subject in and ask for a practice over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lazypower/rhythm/internal/engine"
	"github.com/lazypower/rhythm/internal/model"
	"github.com/lazypower/rhythm/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Server wraps an mcp.Server bound to one engine.
type Server struct {
	eng *engine.Engine
	log *zap.Logger
	srv *mcp.Server
}

// New registers the rhythm tools.
func New(eng *engine.Engine, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		eng: eng,
		log: log,
		srv: mcp.NewServer(&mcp.Implementation{Name: "rhythm", Version: version}, nil),
	}

	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "compute_rhythm",
		Description: "Recompute a subject's rhythm profile from recent moments and state check-ins.",
	}, s.computeRhythm)
	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "curate_practice",
		Description: "Pick one personalized practice for the subject right now.",
	}, s.curatePractice)
	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "record_moment",
		Description: "Record a moment: an insight, ritual, challenge, gratitude, dream or breakthrough.",
	}, s.recordMoment)
	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "record_state",
		Description: "Record a state check-in. Every dimension is 1-10.",
	}, s.recordState)
	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "load_profile",
		Description: "Load the subject aggregate: subject, current state, saved rhythm, recent moments and wisdom threads.",
	}, s.loadProfile)

	return s
}

// Serve runs over stdio until ctx is cancelled or the client goes away.
func (s *Server) Serve(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

// Run serves on an arbitrary transport.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	err := s.srv.Run(ctx, t)
	if err != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type subjectInput struct {
	SubjectID string `json:"subject_id" jsonschema:"The subject's id"`
}

type momentInput struct {
	SubjectID   string            `json:"subject_id"            jsonschema:"The subject's id"`
	Category    string            `json:"category"              jsonschema:"One of insight, ritual, challenge, gratitude, dream, breakthrough"`
	Essence     string            `json:"essence"               jsonschema:"One or two sentences describing the moment"`
	Context     string            `json:"context,omitempty"     jsonschema:"Optional longer context"`
	Emotions    map[string]int    `json:"emotions,omitempty"    jsonschema:"Optional emotion name to intensity 1-10"`
	Seeds       []string          `json:"seeds,omitempty"       jsonschema:"Optional short tags"`
	Environment map[string]string `json:"environment,omitempty" jsonschema:"Optional place, weather and similar"`
	OccurredAt  string            `json:"occurred_at,omitempty" jsonschema:"Optional RFC3339 timestamp, defaults to now"`
}

type stateInput struct {
	SubjectID  string `json:"subject_id" jsonschema:"The subject's id"`
	Clarity    int    `json:"clarity"    jsonschema:"1-10"`
	Peace      int    `json:"peace"      jsonschema:"1-10"`
	Vitality   int    `json:"vitality"   jsonschema:"1-10"`
	Connection int    `json:"connection" jsonschema:"1-10"`
	Purpose    int    `json:"purpose"    jsonschema:"1-10"`
}

func (s *Server) computeRhythm(ctx context.Context, _ *mcp.CallToolRequest, in subjectInput) (*mcp.CallToolResult, any, error) {
	p, err := s.eng.ComputeRhythmProfile(ctx, in.SubjectID)
	if err != nil {
		return s.errorResult("compute_rhythm", err), nil, nil
	}
	return jsonResult(p), nil, nil
}

func (s *Server) curatePractice(ctx context.Context, _ *mcp.CallToolRequest, in subjectInput) (*mcp.CallToolResult, any, error) {
	p, err := s.eng.CuratePractice(ctx, in.SubjectID)
	if err != nil {
		return s.errorResult("curate_practice", err), nil, nil
	}
	return jsonResult(p), nil, nil
}

func (s *Server) recordMoment(ctx context.Context, _ *mcp.CallToolRequest, in momentInput) (*mcp.CallToolResult, any, error) {
	m := model.Moment{
		Category:    model.Category(in.Category),
		Essence:     in.Essence,
		Context:     in.Context,
		Emotions:    in.Emotions,
		Seeds:       in.Seeds,
		Environment: in.Environment,
	}
	if in.OccurredAt != "" {
		t, err := time.Parse(time.RFC3339, in.OccurredAt)
		if err != nil {
			return s.errorResult("record_moment", fmt.Errorf("%w: occurred_at: %w", engine.ErrInvalid, err)), nil, nil
		}
		m.OccurredAt = t
	}

	saved, err := s.eng.RecordMoment(ctx, in.SubjectID, m)
	if err != nil {
		return s.errorResult("record_moment", err), nil, nil
	}
	return jsonResult(saved), nil, nil
}

func (s *Server) recordState(ctx context.Context, _ *mcp.CallToolRequest, in stateInput) (*mcp.CallToolResult, any, error) {
	v, err := s.eng.RecordState(ctx, in.SubjectID, model.StateVector{
		Clarity:    in.Clarity,
		Peace:      in.Peace,
		Vitality:   in.Vitality,
		Connection: in.Connection,
		Purpose:    in.Purpose,
	})
	if err != nil {
		return s.errorResult("record_state", err), nil, nil
	}
	return jsonResult(v), nil, nil
}

func (s *Server) loadProfile(ctx context.Context, _ *mcp.CallToolRequest, in subjectInput) (*mcp.CallToolResult, any, error) {
	p, err := s.eng.LoadProfile(ctx, in.SubjectID)
	if err != nil {
		return s.errorResult("load_profile", err), nil, nil
	}
	return jsonResult(p), nil, nil
}

// errorResult reports a tool failure to the client. Only unexpected
// failures are logged; bad input and unknown subjects are the caller's.
func (s *Server) errorResult(tool string, err error) *mcp.CallToolResult {
	if !errors.Is(err, engine.ErrInvalid) && !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrExists) {
		s.log.Error("tool failed", zap.String("tool", tool), zap.Error(err))
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: "error: " + err.Error()}},
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		data = []byte(fmt.Sprintf(`{"error": "marshal: %v"}`, err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}
