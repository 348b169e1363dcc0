package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

func newTestStore() *Store {
	return NewStore(NewMemoryRepository(), 8, 15, logger.NewDefault())
}

func keyIntel() models.ExtractedIntelligence {
	return models.ExtractedIntelligence{
		BankAccounts: []string{"123456789012"},
		PhoneNumbers: []string{"+91 9876543210"},
	}
}

func TestUpdateCreatesSessionImplicitly(t *testing.T) {
	st := newTestStore()

	sess, _ := st.Update("s1", models.NewAttackerMessage("hello"), models.ExtractedIntelligence{}, false, 0, nil)
	require.NotNil(t, sess)
	assert.Equal(t, "s1", sess.ID)
	assert.Equal(t, 1, sess.MessageCount)
	assert.Equal(t, 1, st.Count())
}

func TestUpdateStickyScamFlag(t *testing.T) {
	st := newTestStore()

	sess, newlyFlagged := st.Update("s1", models.NewAttackerMessage("a"), models.ExtractedIntelligence{}, true, 60, nil)
	assert.True(t, sess.ScamDetected)
	assert.True(t, newlyFlagged)

	// A later benign message never clears the flag.
	sess, newlyFlagged = st.Update("s1", models.NewAttackerMessage("b"), models.ExtractedIntelligence{}, false, 0, nil)
	assert.True(t, sess.ScamDetected)
	assert.False(t, newlyFlagged)
}

func TestUpdateScoreHighWaterMark(t *testing.T) {
	st := newTestStore()

	st.Update("s1", models.NewAttackerMessage("a"), models.ExtractedIntelligence{}, true, 60, nil)
	sess, _ := st.Update("s1", models.NewAttackerMessage("b"), models.ExtractedIntelligence{}, true, 45, nil)
	assert.Equal(t, 60, sess.ScamScore)

	sess, _ = st.Update("s1", models.NewAttackerMessage("c"), models.ExtractedIntelligence{}, true, 85, nil)
	assert.Equal(t, 85, sess.ScamScore)
}

func TestUpdateMergesIntelligence(t *testing.T) {
	st := newTestStore()

	st.Update("s1", models.NewAttackerMessage("a"), models.ExtractedIntelligence{
		BankAccounts: []string{"123456789012"},
	}, false, 0, nil)
	sess, _ := st.Update("s1", models.NewAttackerMessage("b"), models.ExtractedIntelligence{
		BankAccounts: []string{"123456789012"},
		UPIIDs:       []string{"scammer@ybl"},
	}, false, 0, nil)

	assert.Equal(t, []string{"123456789012"}, sess.Intelligence.BankAccounts)
	assert.Equal(t, []string{"scammer@ybl"}, sess.Intelligence.UPIIDs)
}

func TestUpdateUnionsTactics(t *testing.T) {
	st := newTestStore()

	st.Update("s1", models.NewAttackerMessage("a"), models.ExtractedIntelligence{}, true, 50, []string{"urgency_tactics"})
	sess, _ := st.Update("s1", models.NewAttackerMessage("b"), models.ExtractedIntelligence{}, true, 50, []string{"urgency_tactics", "threat_detected"})

	assert.Equal(t, []string{"urgency_tactics", "threat_detected"}, sess.Tactics)
}

func TestAppendAgentReplyCountsButNeverFlags(t *testing.T) {
	st := newTestStore()

	st.Update("s1", models.NewAttackerMessage("a"), models.ExtractedIntelligence{}, false, 0, nil)
	st.AppendAgentReply("s1", "who is this?")

	sess, err := st.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, 2, sess.MessageCount)
	assert.False(t, sess.ScamDetected)
	assert.Equal(t, models.SenderAgent, sess.History[1].Sender)
}

func TestShouldTriggerReport(t *testing.T) {
	t.Run("needs scam detection", func(t *testing.T) {
		st := newTestStore()
		for i := 0; i < 15; i++ {
			st.Update("s1", models.NewAttackerMessage("hi"), keyIntel(), false, 0, nil)
		}
		assert.False(t, st.ShouldTriggerReport("s1"))
	})

	t.Run("min messages with key intelligence", func(t *testing.T) {
		st := newTestStore()
		for i := 0; i < 7; i++ {
			st.Update("s1", models.NewAttackerMessage("hi"), keyIntel(), true, 50, nil)
		}
		assert.False(t, st.ShouldTriggerReport("s1"), "7 messages is below the floor")

		st.Update("s1", models.NewAttackerMessage("hi"), keyIntel(), true, 50, nil)
		assert.True(t, st.ShouldTriggerReport("s1"), "8 messages with key intelligence triggers")
	})

	t.Run("min messages without key intelligence", func(t *testing.T) {
		st := newTestStore()
		intel := models.ExtractedIntelligence{BankAccounts: []string{"123456789012"}}
		for i := 0; i < 10; i++ {
			st.Update("s1", models.NewAttackerMessage("hi"), intel, true, 50, nil)
		}
		assert.False(t, st.ShouldTriggerReport("s1"), "a payment identifier without a contact channel is not key intelligence")
	})

	t.Run("max messages forces trigger", func(t *testing.T) {
		st := newTestStore()
		for i := 0; i < 15; i++ {
			st.Update("s1", models.NewAttackerMessage("hi"), models.ExtractedIntelligence{}, true, 50, nil)
		}
		assert.True(t, st.ShouldTriggerReport("s1"))
	})

	t.Run("unknown session never triggers", func(t *testing.T) {
		st := newTestStore()
		assert.False(t, st.ShouldTriggerReport("nope"))
	})

	t.Run("reported session never retriggers", func(t *testing.T) {
		st := newTestStore()
		for i := 0; i < 15; i++ {
			st.Update("s1", models.NewAttackerMessage("hi"), models.ExtractedIntelligence{}, true, 50, nil)
		}
		require.True(t, st.MarkReported("s1"))
		assert.False(t, st.ShouldTriggerReport("s1"))
	})
}

func TestMarkReportedIsOneWay(t *testing.T) {
	st := newTestStore()
	st.Update("s1", models.NewAttackerMessage("hi"), models.ExtractedIntelligence{}, true, 50, nil)

	assert.True(t, st.MarkReported("s1"))
	assert.False(t, st.MarkReported("s1"))

	sess, err := st.Get("s1")
	require.NoError(t, err)
	assert.True(t, sess.Reported)
}

func TestMarkReportedUnknownSession(t *testing.T) {
	st := newTestStore()
	assert.False(t, st.MarkReported("nope"))
}

func TestMarkReportedConcurrentSingleWinner(t *testing.T) {
	st := newTestStore()
	st.Update("s1", models.NewAttackerMessage("hi"), models.ExtractedIntelligence{}, true, 50, nil)

	const n = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if st.MarkReported("s1") {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestConcurrentUpdatesSameSession(t *testing.T) {
	st := newTestStore()

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			st.Update("s1", models.NewAttackerMessage(fmt.Sprintf("msg %d", i)), models.ExtractedIntelligence{}, i%2 == 0, i, nil)
		}()
	}
	wg.Wait()

	sess, err := st.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, n, sess.MessageCount)
	assert.True(t, sess.ScamDetected)
	assert.Equal(t, n-1, sess.ScamScore)
}

func TestGetReturnsCopy(t *testing.T) {
	st := newTestStore()
	st.Update("s1", models.NewAttackerMessage("hi"), keyIntel(), true, 50, []string{"urgency_tactics"})

	sess, err := st.Get("s1")
	require.NoError(t, err)

	// Mutating the copy must not leak into the store.
	sess.ScamScore = 0
	sess.Tactics[0] = "tampered"
	sess.Intelligence.BankAccounts[0] = "tampered"

	fresh, err := st.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, 50, fresh.ScamScore)
	assert.Equal(t, []string{"urgency_tactics"}, fresh.Tactics)
	assert.Equal(t, []string{"123456789012"}, fresh.Intelligence.BankAccounts)
}

func TestGetUnknownSession(t *testing.T) {
	st := newTestStore()
	_, err := st.Get("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestClear(t *testing.T) {
	st := newTestStore()
	st.Update("s1", models.NewAttackerMessage("hi"), models.ExtractedIntelligence{}, false, 0, nil)

	assert.True(t, st.Clear("s1"))
	assert.False(t, st.Clear("s1"))

	_, err := st.Get("s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
