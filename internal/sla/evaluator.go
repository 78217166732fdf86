package sla

import (
	"time"
)

// Classification buckets a ticket's SLA standing for display and reporting.
type Classification string

const (
	ClassificationOnTrack  Classification = "ON_TRACK"
	ClassificationAtRisk   Classification = "AT_RISK"
	ClassificationBreached Classification = "BREACHED"
)

// atRiskNumerator/atRiskDenominator: a ticket is at risk once it has consumed
// 75% of its current tier's resolution window.
const (
	atRiskNumerator   = 3
	atRiskDenominator = 4
)

// StatusKind abstracts ticket status for evaluation so the package stays free
// of domain imports.
type StatusKind int

const (
	// StatusActive tickets are evaluated normally and may escalate.
	StatusActive StatusKind = iota
	// StatusSettled covers resolved and closed tickets: always on track,
	// excluded from breach counts and tier advancement.
	StatusSettled
	// StatusLapsed tickets ran out their SLA; terminal for escalation but
	// reported as breached rather than on track.
	StatusLapsed
)

// TicketState is the evaluator's read-only view of a ticket.
type TicketState struct {
	CreatedAt     time.Time
	TierEnteredAt time.Time
	CurrentTier   int
	Status        StatusKind
}

// Assessment is the derived SLA standing of a ticket at a point in time. It
// is recomputed on demand and never persisted.
type Assessment struct {
	ElapsedMinutes     int            `json:"elapsed_minutes"`
	Tier               int            `json:"tier"`
	ResponseBreached   bool           `json:"response_breached"`
	ResolutionBreached bool           `json:"resolution_breached"`
	Classification     Classification `json:"classification"`
	ProgressPercent    float64        `json:"progress_percent"`
	MinutesToNextTier  int            `json:"minutes_to_next_tier"`
}

// Evaluator computes escalation assessments against a fixed matrix. It holds
// no mutable state and is safe for concurrent use.
type Evaluator struct {
	matrix *Matrix
}

// NewEvaluator builds an evaluator over the given matrix.
func NewEvaluator(matrix *Matrix) *Evaluator {
	return &Evaluator{matrix: matrix}
}

// Matrix exposes the evaluator's tier table for display composition.
func (e *Evaluator) Matrix() *Matrix {
	return e.matrix
}

// Evaluate derives the assessment for a ticket at wall-clock now. Settled
// tickets short-circuit to on-track before any arithmetic. A missing creation
// timestamp fails closed: understating risk is the worse failure mode, so the
// ticket reports as breached at the ceiling tier rather than on track.
func (e *Evaluator) Evaluate(state TicketState, now time.Time) Assessment {
	current := e.matrix.TierByIndex(state.CurrentTier)

	if state.Status == StatusSettled {
		return Assessment{
			Tier:           current.Level,
			Classification: ClassificationOnTrack,
		}
	}

	if state.CreatedAt.IsZero() {
		top := e.matrix.Top()
		return Assessment{
			Tier:               top.Level,
			ResolutionBreached: true,
			Classification:     ClassificationBreached,
			ProgressPercent:    100,
		}
	}

	elapsed := wholeMinutes(now.Sub(state.CreatedAt))
	effective := e.matrix.TierForElapsed(elapsed)

	enteredAt := state.TierEnteredAt
	if enteredAt.IsZero() {
		enteredAt = state.CreatedAt
	}
	sinceEntry := wholeMinutes(now.Sub(enteredAt))

	assessment := Assessment{
		ElapsedMinutes:     elapsed,
		Tier:               effective.Level,
		ResponseBreached:   sinceEntry > current.ResponseMinutes,
		ResolutionBreached: elapsed > current.ResolutionMinutes,
		ProgressPercent:    progressPercent(elapsed, current.ResolutionMinutes),
		MinutesToNextTier:  clampNonNegative(current.ResolutionMinutes - elapsed),
	}

	switch {
	case state.Status == StatusLapsed:
		assessment.Tier = current.Level
		assessment.ResolutionBreached = true
		assessment.Classification = ClassificationBreached
	case assessment.ResolutionBreached:
		assessment.Classification = ClassificationBreached
	case elapsed*atRiskDenominator > current.ResolutionMinutes*atRiskNumerator:
		assessment.Classification = ClassificationAtRisk
	default:
		assessment.Classification = ClassificationOnTrack
	}

	return assessment
}

func wholeMinutes(d time.Duration) int {
	// Clock drift can place now before createdAt; a negative age must not
	// wrap into a huge elapsed value.
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

func progressPercent(elapsedMinutes, resolutionMinutes int) float64 {
	if resolutionMinutes <= 0 {
		return 100
	}
	pct := 100 * float64(elapsedMinutes) / float64(resolutionMinutes)
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
