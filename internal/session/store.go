package session

import (
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

var (
	// ErrSessionNotFound is returned for lookups and triggers on
	// sessions that were never created or have been cleared.
	ErrSessionNotFound = errors.New("session not found")

	// ErrAlreadyReported is returned when a manual trigger hits a
	// session whose report already fired.
	ErrAlreadyReported = errors.New("session already reported")
)

const lockShards = 256

// Store owns all per-conversation state and its report state machine:
// absent -> open (reported=false) -> closed (reported=true, terminal).
//
// Every read-modify-write sequence on a session runs inside that
// session's critical section. Requests for different sessions proceed
// in parallel; requests for the same session serialize on an fnv-sharded
// mutex keyed by session id.
type Store struct {
	repo   Repository
	locks  [lockShards]sync.Mutex
	logger *logger.Logger

	minMessages int
	maxMessages int
}

// NewStore creates a session store. minMessages is the count at which a
// session with key intelligence becomes reportable; maxMessages forces
// the trigger regardless of intelligence.
func NewStore(repo Repository, minMessages, maxMessages int, log *logger.Logger) *Store {
	if minMessages <= 0 {
		minMessages = 8
	}
	if maxMessages <= 0 {
		maxMessages = 15
	}
	return &Store{
		repo:        repo,
		logger:      log.WithComponent("session-store"),
		minMessages: minMessages,
		maxMessages: maxMessages,
	}
}

func (st *Store) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &st.locks[h.Sum32()%lockShards]
}

// Update applies one analyzed attacker message to the session,
// creating it implicitly on first sight. History grows by one,
// intelligence merges monotonically, scamDetected is sticky once true,
// scamScore keeps its running maximum and tactics union in.
// Returns a deep copy of the updated session plus whether this call
// flipped scamDetected for the first time.
func (st *Store) Update(id string, msg models.Message, intel models.ExtractedIntelligence, scamDetected bool, scamScore int, tactics []string) (*Session, bool) {
	mu := st.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	s := st.getOrCreateLocked(id)

	s.History = append(s.History, msg)
	s.MessageCount = len(s.History)
	s.Intelligence = s.Intelligence.Merge(intel)
	newlyFlagged := false
	if scamDetected && !s.ScamDetected {
		s.ScamDetected = true
		newlyFlagged = true
	}
	if scamScore > s.ScamScore {
		s.ScamScore = scamScore
	}
	s.Tactics = unionTactics(s.Tactics, tactics)

	st.repo.Upsert(s)

	st.logger.Debug().
		Str("session_id", id).
		Int("messages", s.MessageCount).
		Bool("scam_detected", s.ScamDetected).
		Int("scam_score", s.ScamScore).
		Msg("session updated")

	return s.clone(), newlyFlagged
}

// AppendAgentReply appends an agent-authored message to the history.
// Agent text is never scanned for intelligence or scam signal; this is
// the only way agent output enters a session.
func (st *Store) AppendAgentReply(id, text string) {
	mu := st.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	s := st.getOrCreateLocked(id)
	s.History = append(s.History, models.NewAgentMessage(text))
	s.MessageCount = len(s.History)
	st.repo.Upsert(s)
}

// ShouldTriggerReport reports whether the session has produced enough
// evidence to close: scam detected, not yet reported, and either the
// hard message ceiling is reached or the soft floor is reached with
// both a payment identifier and a contact channel in hand.
func (st *Store) ShouldTriggerReport(id string) bool {
	mu := st.lockFor(id)
	mu.Lock()
	defer mu.Unlock()
	return st.shouldTriggerLocked(id)
}

func (st *Store) shouldTriggerLocked(id string) bool {
	s, ok := st.repo.Get(id)
	if !ok {
		return false
	}
	if s.Reported || !s.ScamDetected {
		return false
	}
	if s.MessageCount >= st.maxMessages {
		return true
	}
	if s.MessageCount >= st.minMessages && s.Intelligence.HasKeyIntelligence() {
		return true
	}
	return false
}

// MarkReported performs the open -> closed transition as a check-and-set
// under the session lock and returns whether this call won it. Two
// concurrent callers near the trigger threshold both reach here; only
// the winner may dispatch the report.
func (st *Store) MarkReported(id string) bool {
	mu := st.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	s, ok := st.repo.Get(id)
	if !ok || s.Reported {
		return false
	}
	s.Reported = true
	st.repo.Upsert(s)

	st.logger.Info().Str("session_id", id).Msg("session marked reported")
	return true
}

// Get returns a deep copy of the session, or ErrSessionNotFound.
func (st *Store) Get(id string) (*Session, error) {
	mu := st.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	s, ok := st.repo.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.clone(), nil
}

// Clear destroys a session. Returns false if it never existed.
func (st *Store) Clear(id string) bool {
	mu := st.lockFor(id)
	mu.Lock()
	defer mu.Unlock()
	return st.repo.Delete(id)
}

// Count returns the number of live sessions.
func (st *Store) Count() int {
	return st.repo.Len()
}

func (st *Store) getOrCreateLocked(id string) *Session {
	if s, ok := st.repo.Get(id); ok {
		return s
	}
	s := &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
	}
	st.repo.Upsert(s)
	st.logger.Info().Str("session_id", id).Msg("created new session")
	return s
}

func unionTactics(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, t := range existing {
		seen[t] = struct{}{}
	}
	for _, t := range incoming {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			existing = append(existing, t)
		}
	}
	return existing
}
