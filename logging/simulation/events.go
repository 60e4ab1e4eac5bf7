package simulation

import (
	"context"
	"strconv"

	"rigs-and-ruin/sim/logging"
)

const (
	// EventActorSlept is emitted when the activity machine puts an actor to
	// sleep after its idle timer expires.
	EventActorSlept logging.EventType = "simulation.actor_slept"
	// EventActorWoke is emitted when the activation traversal wakes a
	// sleeping actor.
	EventActorWoke logging.EventType = "simulation.actor_woke"
	// EventStepOverrun is emitted when a physics pass takes longer than the
	// frame budget it was meant to overlap.
	EventStepOverrun logging.EventType = "simulation.step_overrun"
)

func ActorSlept(ctx context.Context, pub logging.Publisher, frame uint64, slot int, idleSeconds float64) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventActorSlept,
		Frame:    frame,
		Actor:    actorRef(slot),
		Severity: logging.SeverityDebug,
		Category: logging.CategorySimulation,
		Payload:  map[string]float64{"idleSeconds": idleSeconds},
	})
}

func ActorWoke(ctx context.Context, pub logging.Publisher, frame uint64, slot int) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventActorWoke,
		Frame:    frame,
		Actor:    actorRef(slot),
		Severity: logging.SeverityDebug,
		Category: logging.CategorySimulation,
	})
}

// StepOverrunPayload captures timing for a pass that blew its frame budget.
type StepOverrunPayload struct {
	DurationMillis int64 `json:"durationMillis"`
	BudgetMillis   int64 `json:"budgetMillis"`
	Substeps       int   `json:"substeps"`
}

func StepOverrun(ctx context.Context, pub logging.Publisher, frame uint64, payload StepOverrunPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventStepOverrun,
		Frame:    frame,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

func actorRef(slot int) logging.EntityRef {
	return logging.EntityRef{ID: strconv.Itoa(slot), Kind: logging.EntityKindActor}
}
