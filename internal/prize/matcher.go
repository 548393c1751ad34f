// Package prize computes the winnings of a ticket number against a round's
// winning numbers. The same Matcher serves the on-demand number check and the
// bulk settlement of a drawn round.
package prize

import (
	"fmt"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/shopspring/decimal"
)

// Tier is one category of winning rule
type Tier string

const (
	TierFirstPrize Tier = "firstPrize"
	TierNearby     Tier = "nearby"
	TierThreeFront Tier = "threeFront"
	TierThreeBack  Tier = "threeBack"
	TierTwoDigit   Tier = "twoDigit"
)

// Payouts is the fixed prize table
var Payouts = map[Tier]decimal.Decimal{
	TierFirstPrize: decimal.NewFromInt(6_000_000),
	TierNearby:     decimal.NewFromInt(100_000),
	TierThreeFront: decimal.NewFromInt(4_000),
	TierThreeBack:  decimal.NewFromInt(4_000),
	TierTwoDigit:   decimal.NewFromInt(2_000),
}

// DuplicatePolicy decides how a winning list holding the same value more than
// once is scored.
type DuplicatePolicy string

const (
	// CountDuplicates credits the tier once per matching entry.
	CountDuplicates DuplicatePolicy = "count"
	// CapPerTier credits each tier at most once per ticket.
	CapPerTier DuplicatePolicy = "cap"
)

// ParsePolicy converts a configuration value to a DuplicatePolicy.
func ParsePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case CountDuplicates, CapPerTier:
		return DuplicatePolicy(s), nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q", s)
	}
}

// Result is the outcome of matching one ticket number
type Result struct {
	IsWinner    bool            `json:"isWinner"`
	Tiers       []Tier          `json:"tiers"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// TierNames returns the awarded tiers as strings, in award order.
func (r Result) TierNames() []string {
	names := make([]string, len(r.Tiers))
	for i, t := range r.Tiers {
		names[i] = string(t)
	}
	return names
}

// Matcher applies the prize table. It holds no state beyond its policy and is
// safe for concurrent use.
type Matcher struct {
	policy DuplicatePolicy
}

// NewMatcher returns a Matcher using policy; an empty policy counts duplicates.
func NewMatcher(policy DuplicatePolicy) *Matcher {
	if policy == "" {
		policy = CountDuplicates
	}
	return &Matcher{policy: policy}
}

// Policy returns the duplicate policy in effect
func (m *Matcher) Policy() DuplicatePolicy { return m.policy }

// Match computes the tiers won by number. A ticket may win several tiers; the
// total is the sum of every award.
func (m *Matcher) Match(number string, wn models.WinningNumberSet) Result {
	res := Result{Tiers: []Tier{}, TotalAmount: decimal.Zero}

	award := func(t Tier, times int) {
		if times == 0 {
			return
		}
		if m.policy == CapPerTier {
			times = 1
		}
		for i := 0; i < times; i++ {
			res.Tiers = append(res.Tiers, t)
			res.TotalAmount = res.TotalAmount.Add(Payouts[t])
		}
	}

	if number != "" && number == wn.FirstPrize {
		award(TierFirstPrize, 1)
	}
	if contains(wn.Nearby, number) {
		award(TierNearby, 1)
	}
	if len(number) >= 3 {
		award(TierThreeFront, count(wn.ThreeFront, number[:3]))
		award(TierThreeBack, count(wn.ThreeBack, number[len(number)-3:]))
	}
	if len(number) >= 2 {
		award(TierTwoDigit, count(wn.TwoDigit, number[len(number)-2:]))
	}

	res.IsWinner = len(res.Tiers) > 0
	return res
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func count(list []string, v string) int {
	n := 0
	for _, s := range list {
		if s == v {
			n++
		}
	}
	return n
}
