package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/adjebara/people-search/backend/internal/gateway"
	"github.com/adjebara/people-search/backend/internal/model/chat"
	"github.com/adjebara/people-search/backend/internal/model/profile"
	"github.com/adjebara/people-search/backend/internal/parser"
)

// Phase is the session's position in the search-then-refine flow.
type Phase string

const (
	// PhaseSearching accepts a fresh query. Initial state.
	PhaseSearching Phase = "searching"
	// PhaseReviewing holds results and accepts refinement instructions.
	PhaseReviewing Phase = "reviewing"
)

var (
	ErrQueryRequired       = errors.New("query is required")
	ErrInstructionRequired = errors.New("instruction is required")
	ErrSearchInFlight      = errors.New("a search is already in progress")
	ErrInstructionInFlight = errors.New("an instruction is already being processed")
	// ErrStaleResponse marks an upstream response that arrived after the
	// session moved on (a reset happened mid-flight). The response is
	// discarded rather than applied.
	ErrStaleResponse = errors.New("stale upstream response discarded")
)

// Event describes a state change pushed to live listeners.
type Event struct {
	Type         string `json:"type"` // "search", "instruction", "reset"
	Phase        Phase  `json:"phase"`
	ResultsCount int    `json:"resultsCount"`
}

// Snapshot is a caller-owned copy of the session at one point in time.
type Snapshot struct {
	Phase        Phase            `json:"phase"`
	ActiveQuery  string           `json:"activeQuery,omitempty"`
	Profiles     []profile.Record `json:"profiles"`
	ResultsCount int              `json:"resultsCount"`
	Transcript   []chat.Message   `json:"transcript"`
	Searching    bool             `json:"searching"`
	Processing   bool             `json:"processing"`
}

// Engine holds the single in-process session: its phase, the current
// profile set and the conversation transcript. All mutation happens under
// one mutex, so a completed operation is observed atomically.
//
// Each operation kind carries a monotonic epoch. Reset bumps both epochs,
// so an in-flight call that resolves afterwards finds its epoch stale and
// is discarded instead of resurrecting pre-reset state.
type Engine struct {
	gw     gateway.Gateway
	parser *parser.Parser
	score  parser.ScoreFunc
	notify func(Event)

	mu            sync.Mutex
	phase         Phase
	activeQuery   string
	profiles      []profile.Record
	resultsCount  int
	transcript    []chat.Message
	searching     bool
	processing    bool
	searchEpoch   uint64
	instructEpoch uint64

	bootstrapOnce sync.Once
}

// Option tweaks Engine construction.
type Option func(*Engine)

// WithScoreFunc overrides the synthetic match-score source, mainly so tests
// can be deterministic.
func WithScoreFunc(score parser.ScoreFunc) Option {
	return func(e *Engine) { e.score = score }
}

// WithNotifier registers a callback invoked (outside the lock) after every
// applied state change.
func WithNotifier(notify func(Event)) Option {
	return func(e *Engine) { e.notify = notify }
}

// NewEngine builds an Engine in the initial searching phase.
func NewEngine(gw gateway.Gateway, opts ...Option) *Engine {
	e := &Engine{
		gw:    gw,
		phase: PhaseSearching,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.score == nil {
		e.score = parser.RandomScore
	}
	e.parser = parser.New(e.score)
	return e
}

// Bootstrap clears any server-side session left over from a previous run.
// Runs at most once per process, before the engine accepts user input.
func (e *Engine) Bootstrap(ctx context.Context) {
	e.bootstrapOnce.Do(func() {
		if err := e.gw.Reset(ctx); err != nil {
			log.Printf("[session] bootstrap session clear failed: %v", err)
		}
	})
}

// SubmitSearch runs a fresh search. Blank queries are rejected before any
// network interaction; so is a second search while one is in flight.
func (e *Engine) SubmitSearch(ctx context.Context, query string) (Snapshot, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Snapshot{}, ErrQueryRequired
	}

	e.mu.Lock()
	if e.searching {
		e.mu.Unlock()
		return Snapshot{}, ErrSearchInFlight
	}
	e.searching = true
	e.searchEpoch++
	epoch := e.searchEpoch
	e.mu.Unlock()

	result, err := e.gw.Search(ctx, query)

	e.mu.Lock()
	defer e.mu.Unlock()
	if epoch != e.searchEpoch {
		return e.snapshotLocked(), ErrStaleResponse
	}
	e.searching = false
	if err != nil {
		return e.snapshotLocked(), fmt.Errorf("search failed: %w", err)
	}

	e.phase = PhaseReviewing
	e.activeQuery = result.Query
	e.profiles = e.parser.Parse(result.Summary)
	e.resultsCount = result.ResultsCount
	e.transcript = []chat.Message{
		chat.New(chat.RoleAssistant, welcomeMessage(result.ResultsCount, result.Query)),
	}
	e.emitLocked("search")
	return e.snapshotLocked(), nil
}

// SubmitInstruction applies a refinement instruction to the current result
// set. Outside the reviewing phase it is silently ignored. The user message
// is appended optimistically, before the upstream round-trip resolves.
func (e *Engine) SubmitInstruction(ctx context.Context, instruction string) (Snapshot, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return Snapshot{}, ErrInstructionRequired
	}

	e.mu.Lock()
	if e.phase != PhaseReviewing {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, nil
	}
	if e.processing {
		e.mu.Unlock()
		return Snapshot{}, ErrInstructionInFlight
	}
	e.processing = true
	e.instructEpoch++
	epoch := e.instructEpoch
	e.transcript = append(e.transcript, chat.New(chat.RoleUser, instruction))
	e.mu.Unlock()

	result, err := e.gw.Instruct(ctx, instruction)

	e.mu.Lock()
	defer e.mu.Unlock()
	if epoch != e.instructEpoch {
		return e.snapshotLocked(), ErrStaleResponse
	}
	e.processing = false
	if err != nil {
		// Keep the conversational record self-documenting: the failure
		// shows up as an assistant turn, not just a transient notice.
		e.transcript = append(e.transcript, chat.New(chat.RoleAssistant,
			"Sorry, I couldn't process that instruction: "+err.Error()))
		return e.snapshotLocked(), fmt.Errorf("instruction failed: %w", err)
	}

	e.mergeLocked(result)
	e.emitLocked("instruction")
	return e.snapshotLocked(), nil
}

// Reset returns the session to its initial empty state from any phase and
// asks upstream to drop its server-side session. The upstream call is
// best-effort: a failure is logged and never surfaced.
func (e *Engine) Reset(ctx context.Context) Snapshot {
	e.mu.Lock()
	e.phase = PhaseSearching
	e.activeQuery = ""
	e.profiles = nil
	e.resultsCount = 0
	e.transcript = nil
	e.searching = false
	e.processing = false
	e.searchEpoch++
	e.instructEpoch++
	e.emitLocked("reset")
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if err := e.gw.Reset(ctx); err != nil {
		log.Printf("[session] session clear failed: %v", err)
	}
	return snap
}

// Snapshot returns the current session state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	profiles := make([]profile.Record, len(e.profiles))
	copy(profiles, e.profiles)
	transcript := make([]chat.Message, len(e.transcript))
	copy(transcript, e.transcript)
	return Snapshot{
		Phase:        e.phase,
		ActiveQuery:  e.activeQuery,
		Profiles:     profiles,
		ResultsCount: e.resultsCount,
		Transcript:   transcript,
		Searching:    e.searching,
		Processing:   e.processing,
	}
}

func (e *Engine) emitLocked(eventType string) {
	if e.notify == nil {
		return
	}
	event := Event{Type: eventType, Phase: e.phase, ResultsCount: e.resultsCount}
	// Deliver outside the lock so a slow listener can't stall the session.
	go e.notify(event)
}

func welcomeMessage(count int, query string) string {
	return fmt.Sprintf(
		"Found %d result(s) for %q. Tell me how to refine them, for example: \"keep only the CEOs\" or \"remove anyone not based in Europe\".",
		count, query)
}
