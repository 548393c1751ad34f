package models

import "time"

// RoundStatus represents the lifecycle state of a lottery round
type RoundStatus string

const (
	RoundStatusOpen   RoundStatus = "OPEN"
	RoundStatusClosed RoundStatus = "CLOSED"
	RoundStatusDrawn  RoundStatus = "DRAWN"
)

// Round represents one draw cycle with its own ticket inventory
type Round struct {
	ID             int64             `json:"id"`
	Name           string            `json:"name"`
	DrawDate       time.Time         `json:"drawDate"`
	OpenSellingAt  time.Time         `json:"openSellingAt"`
	CloseSellingAt time.Time         `json:"closeSellingAt"`
	Status         RoundStatus       `json:"status"`
	WinningNumbers *WinningNumberSet `json:"winningNumbers,omitempty"`
	DrawnAt        *time.Time        `json:"drawnAt,omitempty"` // set once, when the round first becomes DRAWN
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// IsSelling reports whether tickets of the round may be reserved at t.
func (r *Round) IsSelling(t time.Time) bool {
	if r.Status != RoundStatusOpen {
		return false
	}
	return !t.Before(r.OpenSellingAt) && t.Before(r.CloseSellingAt)
}

// Clone returns a deep copy of the round
func (r *Round) Clone() *Round {
	if r == nil {
		return nil
	}
	c := *r
	if r.WinningNumbers != nil {
		wn := r.WinningNumbers.Clone()
		c.WinningNumbers = &wn
	}
	if r.DrawnAt != nil {
		t := *r.DrawnAt
		c.DrawnAt = &t
	}
	return &c
}
