package chain

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

// TokenProgramID is the SPL token program.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// AssociatedTokenProgramID derives associated token accounts.
const AssociatedTokenProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"

// burnInstructionTag is the SPL token Burn instruction discriminant.
const burnInstructionTag = 8

// buildBurnTransaction assembles and signs a legacy Solana transaction
// carrying a single SPL Burn instruction. Account layout:
//
//	0: owner          signer, writable (fee payer)
//	1: token account  writable
//	2: mint           writable
//	3: token program  readonly
//
// No platform-fee instruction is attached; fee collection happens upstream
// of scheduled execution.
func buildBurnTransaction(key ed25519.PrivateKey, mint string, rawAmount uint64, recentBlockhash string) ([]byte, string, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, "", fmt.Errorf("burn wallet key has wrong size %d", len(key))
	}
	owner := key.Public().(ed25519.PublicKey)

	mintKey, err := base58.Decode(mint)
	if err != nil || len(mintKey) != 32 {
		return nil, "", fmt.Errorf("invalid mint address %q", mint)
	}
	blockhash, err := base58.Decode(recentBlockhash)
	if err != nil || len(blockhash) != 32 {
		return nil, "", fmt.Errorf("invalid recent blockhash %q", recentBlockhash)
	}
	tokenProgram, err := base58.Decode(TokenProgramID)
	if err != nil {
		return nil, "", fmt.Errorf("decode token program id: %w", err)
	}

	tokenAccount, err := FindAssociatedTokenAddress(owner, mintKey)
	if err != nil {
		return nil, "", fmt.Errorf("derive token account: %w", err)
	}

	data := make([]byte, 9)
	data[0] = burnInstructionTag
	binary.LittleEndian.PutUint64(data[1:], rawAmount)

	var msg []byte
	// header: 1 required signature, 0 readonly signed, 1 readonly unsigned
	msg = append(msg, 1, 0, 1)
	msg = appendCompactU16(msg, 4)
	msg = append(msg, owner...)
	msg = append(msg, tokenAccount...)
	msg = append(msg, mintKey...)
	msg = append(msg, tokenProgram...)
	msg = append(msg, blockhash...)
	msg = appendCompactU16(msg, 1)
	msg = append(msg, 3)            // program id index
	msg = appendCompactU16(msg, 3)  // account index count
	msg = append(msg, 1, 2, 0)      // token account, mint, owner
	msg = appendCompactU16(msg, 9)  // data length
	msg = append(msg, data...)

	sig := ed25519.Sign(key, msg)

	var tx []byte
	tx = appendCompactU16(tx, 1)
	tx = append(tx, sig...)
	tx = append(tx, msg...)

	return tx, base58.Encode(sig), nil
}

// appendCompactU16 writes Solana's shortvec length prefix.
func appendCompactU16(dst []byte, v uint16) []byte {
	for {
		if v < 0x80 {
			return append(dst, byte(v))
		}
		dst = append(dst, byte(v&0x7f)|0x80)
		v >>= 7
	}
}

// rawUnits converts a human amount into base units, shifting by the mint's
// decimals. Precision loss or a non-positive result is an error here, not
// on chain.
func rawUnits(amount decimal.Decimal, decimals uint8) (uint64, error) {
	shifted := amount.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	if shifted.Sign() <= 0 {
		return 0, fmt.Errorf("amount %s must be positive", amount)
	}
	bi := shifted.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("amount %s overflows u64 base units", amount)
	}
	return bi.Uint64(), nil
}
