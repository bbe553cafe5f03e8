package engine

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// RandomSource is the only source of randomness the engine reads.
// Float64 returns values in [0,1); IntN returns values in [0,n).
type RandomSource interface {
	Float64() float64
	IntN(n int) int
}

// cryptoSource feeds math/rand/v2 from crypto/rand. It holds no state, so
// the resulting *rand.Rand is safe for concurrent use.
type cryptoSource struct{}

func (cryptoSource) Uint64() uint64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		// crypto/rand.Read does not fail on supported platforms
		panic("crypto/rand unavailable: " + err.Error())
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// NewCryptoSource returns the production random source
func NewCryptoSource() RandomSource {
	return rand.New(cryptoSource{})
}

// NewSeededSource returns a reproducible source for tests and simulation.
// It is not safe for concurrent use.
func NewSeededSource(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
