package holes

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/typeforge/typeforge/internal/grammar"
	"github.com/typeforge/typeforge/internal/infer"
	"github.com/typeforge/typeforge/internal/pipeline"
	"github.com/typeforge/typeforge/internal/provider"
	"github.com/typeforge/typeforge/internal/typeparse"
	"github.com/typeforge/typeforge/internal/typesystem"
)

// DefaultMaxAttempts bounds the generation retry loop.
const DefaultMaxAttempts = 3

// DefaultMaxTokens caps one hole completion.
const DefaultMaxTokens = 256

// Recorder receives fill outcomes for persistence. Implementations must
// tolerate being called once per hole per run.
type Recorder interface {
	RecordFill(runID string, result FillResult) error
}

// Engine composes inference, grammar synthesis and generation into the
// per-hole fill state machine:
//
//	Identified -> TypeInferred -> GrammarBuilt -> Generating(1..max) -> Filled | Failed
type Engine struct {
	Infer       *infer.Engine
	Converter   *grammar.Converter
	Adapter     typeparse.Adapter
	Provider    provider.Provider // nil means generation always fails
	Recorder    Recorder          // optional
	MaxAttempts int
	MaxTokens   int
	Temperature float64
}

// NewEngine builds a fill engine with default limits. The provider may be
// nil; holes then fail individually instead of the engine erroring.
func NewEngine(p provider.Provider) *Engine {
	return &Engine{
		Infer:       infer.NewEngine(),
		Converter:   grammar.NewConverter(),
		Provider:    p,
		MaxAttempts: DefaultMaxAttempts,
		MaxTokens:   DefaultMaxTokens,
		Temperature: 0.2,
	}
}

// fillState threads one hole through the stage pipeline.
type fillState struct {
	engine *Engine
	ctx    context.Context
	tctx   *typesystem.TypeContext

	hole    Hole
	code    string
	result  FillResult
	failed  bool
	grammar string
}

// FillAll processes every hole in code independently: one hole failing does
// not abort the others. It returns the (possibly partially) filled code and
// one result per hole. It never returns an error; per-hole failures are
// reported on the results.
func (e *Engine) FillAll(ctx context.Context, code string, tctx *typesystem.TypeContext) (string, []FillResult) {
	runID := uuid.NewString()

	stages := pipeline.New[*fillState](
		pipeline.Func[*fillState]((*fillState).inferType),
		pipeline.Func[*fillState]((*fillState).buildGrammar),
		pipeline.Func[*fillState]((*fillState).generate),
	)

	var results []FillResult
	out := code
	for _, hole := range FindHoles(code, tctx) {
		state := &fillState{engine: e, ctx: ctx, tctx: tctx, hole: hole, code: out}
		state = stages.Run(state)

		if state.result.Success {
			out = strings.Replace(out, hole.Original, state.result.Code, 1)
		}
		if e.Recorder != nil {
			// Persistence is best-effort; a failing recorder must not turn
			// a successful fill into a failure.
			_ = e.Recorder.RecordFill(runID, state.result)
		}
		results = append(results, state.result)
	}
	return out, results
}

// FillHole runs the state machine for a single, already-located hole.
func (e *Engine) FillHole(ctx context.Context, hole Hole, tctx *typesystem.TypeContext) FillResult {
	state := &fillState{engine: e, ctx: ctx, tctx: tctx, hole: hole}
	state = state.inferType()
	state = state.buildGrammar()
	state = state.generate()
	return state.result
}

// inferType resolves the hole's expected type: inline annotation first,
// then a scope variable of the same name, then unknown.
func (s *fillState) inferType() *fillState {
	s.result.Hole = s.hole

	switch {
	case s.hole.HasType:
		s.result.InferredType = s.hole.Expected
	case s.hole.annotation != "":
		adapter := s.engine.Adapter
		if adapter == nil {
			adapter = typeparse.NewTSAdapter(s.tctx)
		}
		parsed, err := adapter.ParseType(s.hole.annotation)
		if err != nil {
			// A broken annotation degrades to unknown rather than failing.
			parsed = typesystem.Unknown()
		}
		s.result.InferredType = parsed
		s.result.Hole.Expected = parsed
		s.result.Hole.HasType = true
	default:
		if t, ok := s.tctx.Variables[s.hole.Name]; ok {
			s.result.InferredType = t
		} else {
			s.result.InferredType = typesystem.Unknown()
		}
	}
	return s
}

// buildGrammar converts the expected type into a generation grammar.
func (s *fillState) buildGrammar() *fillState {
	if s.failed {
		return s
	}
	s.grammar = s.engine.Converter.Convert(s.result.InferredType, s.tctx)
	s.result.Grammar = s.grammar
	return s
}

// generate drives the bounded retry loop against the provider. Errors on
// non-final attempts are swallowed; the final error is surfaced on the
// result. Success means non-blank trimmed text.
func (s *fillState) generate() *fillState {
	if s.failed {
		return s
	}

	e := s.engine
	if e.Provider == nil {
		s.failed = true
		s.result.Err = provider.ErrNotConfigured.Error()
		return s
	}

	maxAttempts := e.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	prompt := s.prompt()
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		s.result.Attempts = attempt

		// Cooperative cancellation between attempts.
		if err := s.ctx.Err(); err != nil {
			lastErr = err
			break
		}

		resp, err := e.Provider.Generate(s.ctx, provider.Request{
			Prompt:      prompt,
			Grammar:     s.grammar,
			MaxTokens:   e.MaxTokens,
			Temperature: e.Temperature,
			RequestID:   uuid.NewString(),
		})
		if err != nil {
			lastErr = err
			continue
		}

		text := strings.TrimSpace(resp.Text)
		if text == "" {
			lastErr = fmt.Errorf("empty completion (finish reason %q)", resp.FinishReason)
			continue
		}

		s.result.Code = text
		s.result.Success = true
		return s
	}

	s.failed = true
	if lastErr != nil {
		s.result.Err = lastErr.Error()
	} else {
		s.result.Err = "generation exhausted attempts"
	}
	return s
}

// prompt renders the generation request for this hole.
func (s *fillState) prompt() string {
	var sb strings.Builder
	sb.WriteString("Fill the ")
	sb.WriteString(s.hole.Kind.String())
	sb.WriteString(" placeholder ")
	sb.WriteString(s.hole.Name)
	sb.WriteString(" at ")
	sb.WriteString(s.hole.Position())
	sb.WriteString(" with a value of type ")
	sb.WriteString(s.result.InferredType.String())
	sb.WriteString(".\n")
	if s.code != "" {
		sb.WriteString("Source:\n")
		sb.WriteString(s.code)
		sb.WriteString("\n")
	}
	sb.WriteString("Respond with the replacement text only.")
	return sb.String()
}
