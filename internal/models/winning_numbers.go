package models

import (
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
)

// WinningNumberSet is the announced result of a round. It is serialized only when
// it crosses the storage boundary.
type WinningNumberSet struct {
	FirstPrize string   `json:"firstPrize" bson:"firstPrize" validate:"required,len=6,number"`
	Nearby     []string `json:"nearby" bson:"nearby" validate:"dive,len=6,number"`
	ThreeFront []string `json:"threeFront" bson:"threeFront" validate:"dive,len=3,number"`
	ThreeBack  []string `json:"threeBack" bson:"threeBack" validate:"dive,len=3,number"`
	TwoDigit   []string `json:"twoDigit" bson:"twoDigit" validate:"dive,len=2,number"`
}

var validate = validator.New()

// Validate checks the width and digit-only constraints of every entry.
func (w WinningNumberSet) Validate() error {
	return validate.Struct(w)
}

// Equal reports whether both sets hold the same values in the same order.
func (w WinningNumberSet) Equal(o WinningNumberSet) bool {
	return w.FirstPrize == o.FirstPrize &&
		equalStrings(w.Nearby, o.Nearby) &&
		equalStrings(w.ThreeFront, o.ThreeFront) &&
		equalStrings(w.ThreeBack, o.ThreeBack) &&
		equalStrings(w.TwoDigit, o.TwoDigit)
}

// Clone returns a deep copy of the set
func (w WinningNumberSet) Clone() WinningNumberSet {
	return WinningNumberSet{
		FirstPrize: w.FirstPrize,
		Nearby:     cloneStrings(w.Nearby),
		ThreeFront: cloneStrings(w.ThreeFront),
		ThreeBack:  cloneStrings(w.ThreeBack),
		TwoDigit:   cloneStrings(w.TwoDigit),
	}
}

// MarshalWinningNumbers encodes the set for a JSON storage column.
func MarshalWinningNumbers(w WinningNumberSet) ([]byte, error) {
	return json.Marshal(normalize(w))
}

// UnmarshalWinningNumbers decodes a set previously written by MarshalWinningNumbers.
func UnmarshalWinningNumbers(b []byte) (WinningNumberSet, error) {
	var w WinningNumberSet
	if err := json.Unmarshal(b, &w); err != nil {
		return WinningNumberSet{}, err
	}
	return normalize(w), nil
}

// normalize replaces nil lists with empty ones so that a stored set reads back equal
func normalize(w WinningNumberSet) WinningNumberSet {
	if w.Nearby == nil {
		w.Nearby = []string{}
	}
	if w.ThreeFront == nil {
		w.ThreeFront = []string{}
	}
	if w.ThreeBack == nil {
		w.ThreeBack = []string{}
	}
	if w.TwoDigit == nil {
		w.TwoDigit = []string{}
	}
	return w
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
