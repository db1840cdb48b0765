package companion

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"kokoro/pkg/persona"
)

const (
	opLoad   = "load"
	opSave   = "save"
	opAppend = "append_memory"
	opDelete = "delete"
)

// milestoneImportance is the floor importance of a relationship stage change.
const milestoneImportance = 0.8

type persistJob struct {
	op     string
	state  persona.CompanionState
	memory persona.InteractionMemory
}

// enqueue hands a job to the identity's writer. The caller holds e.mu, so jobs
// reach the writer in mutation order; enqueue itself never waits on the store.
func (r *Registry) enqueue(identity string, e *entry, job persistJob) {
	if dropped := e.queue.push(job); dropped > 0 {
		log.Printf("[Persist] Queue full for %s, coalesced %d pending saves", identity, dropped)
	}
}

// runWriter drains one identity's jobs in order until the queue is closed and
// empty, or shutdown abandons it.
func (r *Registry) runWriter(identity string, q *jobQueue) {
	defer r.writers.Done()
	for {
		job, ok, done := q.pop()
		if done {
			return
		}
		if !ok {
			select {
			case <-q.wake:
			case <-r.abandon:
				return
			}
			continue
		}

		select {
		case <-r.abandon:
			return
		default:
		}
		r.persist(identity, job)
	}
}

// persist runs one job. Failures are logged and never reach the caller.
func (r *Registry) persist(identity string, job persistJob) {
	start := time.Now()
	var err error
	switch job.op {
	case opSave:
		err = r.store.SaveState(identity, job.state)
	case opAppend:
		err = r.store.AppendMemory(identity, job.memory)
	case opDelete:
		err = r.store.DeleteState(identity)
	default:
		err = fmt.Errorf("unknown persist op %q", job.op)
	}
	r.metrics.RecordPersist(job.op, time.Since(start), err)

	if err != nil {
		log.Printf("[Persist] %s failed for %s: %v", job.op, identity, err)
	}
}

type memoryContent struct {
	Text          string                      `json:"text"`
	Analysis      persona.InteractionAnalysis `json:"analysis"`
	EmotionBefore persona.Emotion             `json:"emotion_before"`
	EmotionAfter  persona.Emotion             `json:"emotion_after"`
	StageBefore   persona.Stage               `json:"stage_before,omitempty"`
	StageAfter    persona.Stage               `json:"stage_after,omitempty"`
}

// memoryFor decides whether an interaction is worth remembering and builds the record.
// Stage changes are always kept as milestones.
func (r *Registry) memoryFor(text string, a persona.InteractionAnalysis, before, after persona.CompanionState) (persona.InteractionMemory, bool) {
	importance := a.Significance()
	stageChanged := before.Stage() != after.Stage()
	if !stageChanged && importance < r.opts.ImportanceThreshold {
		return persona.InteractionMemory{}, false
	}

	content := memoryContent{
		Text:          text,
		Analysis:      a,
		EmotionBefore: before.Emotion,
		EmotionAfter:  after.Emotion,
	}
	kind := persona.MemoryInteraction
	if stageChanged {
		kind = persona.MemoryMilestone
		importance = max(importance, milestoneImportance)
		content.StageBefore = before.Stage()
		content.StageAfter = after.Stage()
	}

	data, err := json.Marshal(content)
	if err != nil {
		log.Printf("[Companion] Failed to encode memory content: %v", err)
		return persona.InteractionMemory{}, false
	}

	return persona.InteractionMemory{
		ID:         uuid.NewString(),
		Type:       kind,
		Content:    string(data),
		Importance: importance,
		Context:    fmt.Sprintf("emotion=%s stage=%s bonding=%.1f", after.Emotion, after.Stage(), after.BondingLevel),
		CreatedAt:  r.now().UnixNano(),
	}, true
}
