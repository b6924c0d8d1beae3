// Package chain submits SPL-token burn transactions to a Solana RPC node
// and polls them to confirmation. The scheduler only ever sees the Client
// interface; the JSON-RPC implementation lives in rpc.go.
package chain

import (
	"context"
	"crypto/ed25519"
	"errors"

	"github.com/shopspring/decimal"
)

// Client is the capability the execution engine consumes. Submitting a burn
// is irreversible: once SubmitBurn returns a signature the tokens are gone
// if the transaction lands, whether or not Confirm is ever called.
type Client interface {
	// SubmitBurn builds, signs, and submits a burn transaction. It returns
	// the transaction signature (base58).
	SubmitBurn(ctx context.Context, req BurnRequest) (string, error)

	// Confirm polls until the signature is confirmed or the context
	// expires. The caller bounds the wait with a context deadline.
	Confirm(ctx context.Context, signature string) (ConfirmResult, error)
}

// BurnRequest describes one burn: which mint, how much, signed by whom.
// The private key is the decrypted burn-wallet key; it is never persisted.
type BurnRequest struct {
	PrivateKey ed25519.PrivateKey
	Mint       string
	// Amount is the human-denominated quantity; it is shifted by Decimals
	// into raw base units. The conversion must be exact or the burn is
	// rejected before submission.
	Amount   decimal.Decimal
	Decimals uint8
}

// ConfirmResult reports a confirmed transaction. Fee is denominated in SOL.
type ConfirmResult struct {
	Fee  decimal.Decimal
	Slot uint64
}

var (
	// ErrNetwork covers transport-level failures talking to the RPC node.
	ErrNetwork = errors.New("chain: network error")

	// ErrTimeout means the transaction was submitted but did not reach a
	// confirmed status before the caller's deadline.
	ErrTimeout = errors.New("chain: confirmation timeout")

	// ErrRejected means the cluster processed the transaction and failed it.
	ErrRejected = errors.New("chain: transaction rejected")
)
