package sla

import (
	"fmt"
)

// TierCount is the fixed number of escalation tiers (L0 through L5).
const TierCount = 6

// Tier is one row of the service-level matrix. ResponseMinutes is the
// acknowledgement window once a ticket enters the tier; ResolutionMinutes is
// the cumulative deadline measured from ticket creation.
type Tier struct {
	Level             int `json:"level"`
	ResponseMinutes   int `json:"response_minutes"`
	ResolutionMinutes int `json:"resolution_minutes"`
}

// Label returns the display identifier, e.g. "L3".
func (t Tier) Label() string {
	return fmt.Sprintf("L%d", t.Level)
}

// Matrix is the ordered, immutable six-tier service-level table. Construct it
// once at startup via NewMatrix or Default; it is safe for concurrent use.
type Matrix struct {
	tiers [TierCount]Tier
}

// NewMatrix validates and freezes a tier table. Deadlines must be strictly
// increasing across tiers and the table must cover levels 0-5 with no gaps.
func NewMatrix(tiers []Tier) (*Matrix, error) {
	if len(tiers) != TierCount {
		return nil, fmt.Errorf("sla: matrix requires %d tiers, got %d", TierCount, len(tiers))
	}
	m := &Matrix{}
	for i, tier := range tiers {
		if tier.Level != i {
			return nil, fmt.Errorf("sla: tier at position %d has level %d", i, tier.Level)
		}
		if tier.ResponseMinutes <= 0 || tier.ResolutionMinutes <= 0 {
			return nil, fmt.Errorf("sla: tier %d has non-positive deadline", i)
		}
		if i > 0 {
			prev := tiers[i-1]
			if tier.ResponseMinutes <= prev.ResponseMinutes {
				return nil, fmt.Errorf("sla: response deadline not increasing at tier %d", i)
			}
			if tier.ResolutionMinutes <= prev.ResolutionMinutes {
				return nil, fmt.Errorf("sla: resolution deadline not increasing at tier %d", i)
			}
		}
		m.tiers[i] = tier
	}
	return m, nil
}

// Default returns the standard facility-operations matrix.
func Default() *Matrix {
	m, err := NewMatrix([]Tier{
		{Level: 0, ResponseMinutes: 30, ResolutionMinutes: 1440},
		{Level: 1, ResponseMinutes: 120, ResolutionMinutes: 2880},
		{Level: 2, ResponseMinutes: 240, ResolutionMinutes: 4320},
		{Level: 3, ResponseMinutes: 720, ResolutionMinutes: 5160},
		{Level: 4, ResponseMinutes: 1800, ResolutionMinutes: 6600},
		{Level: 5, ResponseMinutes: 2160, ResolutionMinutes: 8040},
	})
	if err != nil {
		panic(err)
	}
	return m
}

// TierByIndex returns the tier at ordinal i, clamped into [0,5]. Clamping is
// deliberate: a caller computing "tier + 1" at the ceiling must not fault.
func (m *Matrix) TierByIndex(i int) Tier {
	if i < 0 {
		i = 0
	}
	if i >= TierCount {
		i = TierCount - 1
	}
	return m.tiers[i]
}

// Tiers returns a copy of the ordered tier table.
func (m *Matrix) Tiers() []Tier {
	out := make([]Tier, TierCount)
	copy(out, m.tiers[:])
	return out
}

// Top returns the highest escalation tier.
func (m *Matrix) Top() Tier {
	return m.tiers[TierCount-1]
}

// TierForElapsed resolves the effective tier for a ticket age. A ticket that
// has exceeded tier i's resolution deadline belongs to tier i+1; the scan
// stops at the first unexceeded deadline or at the ceiling.
func (m *Matrix) TierForElapsed(elapsedMinutes int) Tier {
	for i := 0; i < TierCount; i++ {
		if elapsedMinutes <= m.tiers[i].ResolutionMinutes {
			return m.tiers[i]
		}
	}
	return m.Top()
}

// EscalationBoundaries returns the elapsed-minute marks at which a ticket
// moves to the next tier: the resolution deadlines of tiers 0-4. This is the
// single derived boundary view; it is not maintained as a separate table.
func (m *Matrix) EscalationBoundaries() []int {
	bounds := make([]int, TierCount-1)
	for i := 0; i < TierCount-1; i++ {
		bounds[i] = m.tiers[i].ResolutionMinutes
	}
	return bounds
}

// FormatMinutes renders a non-negative minute count as a compact duration:
// "0min", "4h", "2h 30min".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dmin", minutes)
	}
	hours := minutes / 60
	rest := minutes % 60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dmin", hours, rest)
}
