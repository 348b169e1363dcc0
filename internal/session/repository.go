package session

import (
	"sync"
	"time"

	"honeytrap-lab/internal/domain/models"
)

// Session is the per-conversation state owned by the Store. Callers
// only ever see deep copies; the live struct is never handed out.
type Session struct {
	ID           string                        `json:"sessionId"`
	CreatedAt    time.Time                     `json:"createdAt"`
	History      []models.Message              `json:"conversationHistory"`
	MessageCount int                           `json:"messageCount"`
	Intelligence models.ExtractedIntelligence  `json:"extractedIntelligence"`
	ScamDetected bool                          `json:"scamDetected"`
	ScamScore    int                           `json:"scamScore"`
	Reported     bool                          `json:"reported"`
	Tactics      []string                      `json:"scammerTactics"`
}

// clone returns a deep copy safe to use outside the store's locks.
func (s *Session) clone() *Session {
	cp := *s
	cp.History = make([]models.Message, len(s.History))
	copy(cp.History, s.History)
	cp.Intelligence = s.Intelligence.Clone()
	cp.Tactics = make([]string, len(s.Tactics))
	copy(cp.Tactics, s.Tactics)
	return &cp
}

// Repository is the storage capability behind the Store. The default
// implementation is in-memory; swapping in an external backend does not
// touch the scoring or trigger logic.
type Repository interface {
	Get(id string) (*Session, bool)
	Upsert(s *Session)
	Delete(id string) bool
	List() []*Session
	Len() int
}

// MemoryRepository is the default map-backed repository. Sessions live
// for the process lifetime; there is no eviction or expiry, so memory
// grows with distinct session ids in long-running deployments.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]*Session)}
}

func (r *MemoryRepository) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *MemoryRepository) Upsert(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *MemoryRepository) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

func (r *MemoryRepository) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
