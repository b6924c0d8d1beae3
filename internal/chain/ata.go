package chain

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

const pdaMarker = "ProgramDerivedAddress"

// FindAssociatedTokenAddress derives the canonical token account for a
// wallet and mint: the program-derived address of
// [wallet, token program, mint] under the associated token program.
func FindAssociatedTokenAddress(wallet, mint []byte) ([]byte, error) {
	tokenProgram, err := base58.Decode(TokenProgramID)
	if err != nil {
		return nil, err
	}
	ataProgram, err := base58.Decode(AssociatedTokenProgramID)
	if err != nil {
		return nil, err
	}
	addr, _, err := findProgramAddress([][]byte{wallet, tokenProgram, mint}, ataProgram)
	return addr, err
}

// findProgramAddress searches bump seeds 255..0 for the first candidate
// that falls off the ed25519 curve, matching the on-chain derivation.
func findProgramAddress(seeds [][]byte, programID []byte) ([]byte, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		for _, seed := range seeds {
			h.Write(seed)
		}
		h.Write([]byte{byte(bump)})
		h.Write(programID)
		h.Write([]byte(pdaMarker))
		candidate := h.Sum(nil)

		if !isOnCurve(candidate) {
			return candidate, uint8(bump), nil
		}
	}
	return nil, 0, fmt.Errorf("no viable program address bump found")
}

// isOnCurve reports whether a 32-byte value decompresses to a valid
// ed25519 point. PDAs must not have a corresponding private key.
func isOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
