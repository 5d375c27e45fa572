// Package rarity assigns rarity tiers from a craft seed.
package rarity

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"foundry.ai/internal/foundry/model"
)

type Seed [32]byte

const (
	windowMask   = 0xFFFFFF
	plusTwoBelow = 0x40000  // 1/64 of the window
	plusOneBelow = 0x100000 // 1/16 of the window
)

// NewSeed derives the craft seed from the craft timestamp and the crafter
// and station identities.
func NewSeed(unixTime int64, crafterID, stationID string) Seed {
	h := sha3.NewLegacyKeccak256()
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(unixTime))
	h.Write(ts[:])
	h.Write([]byte(crafterID))
	h.Write([]byte(stationID))
	var s Seed
	copy(s[:], h.Sum(nil))
	return s
}

// Window is the low 24 bits of the seed.
func (s Seed) Window() uint32 {
	return (uint32(s[29])<<16 | uint32(s[30])<<8 | uint32(s[31])) & windowMask
}

// Boost is the effective level bonus the seed grants: +2 (1/64), +1 (1/16) or 0.
func Boost(s Seed) int {
	w := s.Window()
	switch {
	case w < plusTwoBelow:
		return 2
	case w < plusOneBelow:
		return 1
	default:
		return 0
	}
}

// ForLevel maps an effective level to its tier.
func ForLevel(level int) model.Rarity {
	switch {
	case level <= 1:
		return model.RarityCommon
	case level <= 3:
		return model.RarityRare
	case level <= 5:
		return model.RarityEpic
	case level <= 7:
		return model.RarityLegendary
	default:
		return model.RarityMythic
	}
}

// Roll is a pure function of (seed, level).
func Roll(s Seed, stationLevel int) model.Rarity {
	return ForLevel(stationLevel + Boost(s))
}
