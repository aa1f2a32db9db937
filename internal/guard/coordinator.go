package guard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docukeep/session-guard/internal/domain"
)

// Decision is the render branch a protected surface should take.
type Decision int

const (
	// DecisionContent exposes the route's real content.
	DecisionContent Decision = iota
	// DecisionChallenge withholds content behind the passcode challenge.
	DecisionChallenge
)

func (d Decision) String() string {
	if d == DecisionChallenge {
		return "CHALLENGE"
	}
	return "CONTENT"
}

// Visit is one entry into a protected route. Unlock state lives only here;
// it is never persisted, so every fresh navigation starts a new visit.
type Visit struct {
	VisitID     uuid.UUID
	RouteID     string
	PrincipalID string
	Decision    Decision
	Challenge   *Challenge
	EnteredAt   time.Time
}

// Coordinator tracks route visits for one principal's guard session and pins
// a policy decision to each visit so the guard never alternates behaviors
// across re-renders of the same route entry.
type Coordinator struct {
	mu           sync.Mutex
	clock        Clock
	principalID  string
	evaluator    *PolicyEvaluator
	newChallenge func(routeID string, visitID uuid.UUID, passcodeHash string) *Challenge
	visits       map[uuid.UUID]*Visit
	visitByRoute map[string]uuid.UUID
}

func NewCoordinator(
	clock Clock,
	principalID string,
	evaluator *PolicyEvaluator,
	newChallenge func(routeID string, visitID uuid.UUID, passcodeHash string) *Challenge,
) *Coordinator {
	if clock == nil {
		clock = SystemClock()
	}
	return &Coordinator{
		clock:        clock,
		principalID:  principalID,
		evaluator:    evaluator,
		newChallenge: newChallenge,
		visits:       make(map[uuid.UUID]*Visit),
		visitByRoute: make(map[string]uuid.UUID),
	}
}

// Enter starts a fresh visit for the route, discarding any prior one. The
// policy is evaluated once here; a locked decision creates a challenge with
// attempt count zero.
func (c *Coordinator) Enter(ctx context.Context, routeID string) *Visit {
	decision := c.evaluator.Evaluate(ctx, c.principalID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if prevID, ok := c.visitByRoute[routeID]; ok {
		if prev, exists := c.visits[prevID]; exists && prev.Challenge != nil {
			prev.Challenge.Close()
		}
		delete(c.visits, prevID)
		delete(c.visitByRoute, routeID)
	}

	visit := &Visit{
		VisitID:     uuid.New(),
		RouteID:     routeID,
		PrincipalID: c.principalID,
		EnteredAt:   c.clock.Now(),
	}
	if decision.Locked {
		visit.Decision = DecisionChallenge
		visit.Challenge = c.newChallenge(routeID, visit.VisitID, decision.PasscodeHash)
	} else {
		visit.Decision = DecisionContent
	}
	c.visits[visit.VisitID] = visit
	c.visitByRoute[routeID] = visit.VisitID
	return visit
}

// Guard re-checks an existing visit without re-evaluating policy: unlocked
// visits keep rendering content, challenged visits keep the challenge.
func (c *Coordinator) Guard(visitID uuid.UUID) (Decision, error) {
	c.mu.Lock()
	visit, ok := c.visits[visitID]
	c.mu.Unlock()
	if !ok {
		return DecisionChallenge, domain.ErrVisitClosed
	}
	if visit.Challenge != nil && visit.Challenge.State().Phase != PhaseUnlocked {
		return DecisionChallenge, nil
	}
	return DecisionContent, nil
}

// Lookup returns a live visit.
func (c *Coordinator) Lookup(visitID uuid.UUID) (*Visit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	visit, ok := c.visits[visitID]
	if !ok {
		return nil, domain.ErrVisitClosed
	}
	return visit, nil
}

// Leave ends a visit, cancelling any in-flight verification and discarding
// all challenge state for it.
func (c *Coordinator) Leave(visitID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	visit, ok := c.visits[visitID]
	if !ok {
		return domain.ErrVisitClosed
	}
	if visit.Challenge != nil {
		visit.Challenge.Close()
	}
	delete(c.visits, visitID)
	if current, exists := c.visitByRoute[visit.RouteID]; exists && current == visitID {
		delete(c.visitByRoute, visit.RouteID)
	}
	return nil
}

// ClearEscalated drops escalated visits so a re-entry after out-of-band
// reverification starts from a fresh challenge.
func (c *Coordinator) ClearEscalated() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cleared := 0
	for id, visit := range c.visits {
		if visit.Challenge == nil || visit.Challenge.State().Phase != PhaseEscalated {
			continue
		}
		visit.Challenge.Close()
		delete(c.visits, id)
		if current, exists := c.visitByRoute[visit.RouteID]; exists && current == id {
			delete(c.visitByRoute, visit.RouteID)
		}
		cleared++
	}
	return cleared
}

// Reset discards every visit. Termination and principal changes both land here.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, visit := range c.visits {
		if visit.Challenge != nil {
			visit.Challenge.Close()
		}
	}
	c.visits = make(map[uuid.UUID]*Visit)
	c.visitByRoute = make(map[string]uuid.UUID)
}
