package chain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// solDecimals converts lamport fees into SOL.
const solDecimals = 9

// RPCClient talks JSON-RPC 2.0 to a Solana node.
type RPCClient struct {
	url          string
	http         *http.Client
	log          zerolog.Logger
	pollInterval time.Duration
}

var _ Client = (*RPCClient)(nil)

func NewRPCClient(url string, log zerolog.Logger) *RPCClient {
	return &RPCClient{
		url:          url,
		http:         &http.Client{Timeout: 30 * time.Second},
		log:          log.With().Str("component", "chain").Logger(),
		pollInterval: 2 * time.Second,
	}
}

type rpcRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcErrorBody   `json:"error"`
}

// call performs one JSON-RPC round trip. Transport failures map to
// ErrNetwork; an error body is returned as-is for the caller to classify.
func (c *RPCClient) call(ctx context.Context, method string, params []any, result any) error {
	body, err := json.Marshal(rpcRequest{Jsonrpc: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNetwork, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned HTTP %d", ErrNetwork, method, resp.StatusCode)
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrNetwork, method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%w: %s: %s (code %d)", ErrRejected, method, envelope.Error.Message, envelope.Error.Code)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("%w: unmarshal %s result: %v", ErrNetwork, method, err)
		}
	}
	return nil
}

// SubmitBurn fetches a recent blockhash, assembles and signs the burn, and
// submits it. The returned signature is the node's, which must match the
// locally computed one.
func (c *RPCClient) SubmitBurn(ctx context.Context, req BurnRequest) (string, error) {
	raw, err := rawUnits(req.Amount, req.Decimals)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRejected, err)
	}

	var blockhashResult struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getLatestBlockhash", []any{map[string]any{"commitment": "confirmed"}}, &blockhashResult); err != nil {
		return "", err
	}

	tx, localSig, err := buildBurnTransaction(req.PrivateKey, req.Mint, raw, blockhashResult.Value.Blockhash)
	if err != nil {
		return "", fmt.Errorf("%w: build transaction: %v", ErrRejected, err)
	}

	var signature string
	params := []any{
		base64.StdEncoding.EncodeToString(tx),
		map[string]any{"encoding": "base64", "preflightCommitment": "confirmed"},
	}
	if err := c.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}

	if signature != localSig {
		c.log.Warn().Str("local", localSig).Str("node", signature).Msg("node returned unexpected signature")
	}
	c.log.Info().Str("signature", signature).Str("mint", req.Mint).Msg("burn submitted")
	return signature, nil
}

// Confirm polls signature status until the cluster reports it confirmed or
// the context deadline passes. Transient poll errors are logged and
// retried; the deadline is the only bound.
func (c *RPCClient) Confirm(ctx context.Context, signature string) (ConfirmResult, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.signatureStatus(ctx, signature)
		if err == nil && status != nil {
			if status.Err != nil {
				return ConfirmResult{}, fmt.Errorf("%w: %s", ErrRejected, string(status.Err))
			}
			if status.ConfirmationStatus == "confirmed" || status.ConfirmationStatus == "finalized" {
				fee, ferr := c.transactionFee(ctx, signature)
				if ferr != nil {
					return ConfirmResult{}, ferr
				}
				return ConfirmResult{Fee: fee, Slot: status.Slot}, nil
			}
		}
		if err != nil {
			c.log.Debug().Err(err).Str("signature", signature).Msg("status poll failed, retrying")
		}

		select {
		case <-ctx.Done():
			return ConfirmResult{}, fmt.Errorf("%w: %s", ErrTimeout, signature)
		case <-ticker.C:
		}
	}
}

type signatureStatus struct {
	Slot               uint64          `json:"slot"`
	ConfirmationStatus string          `json:"confirmationStatus"`
	Err                json.RawMessage `json:"err"`
}

func (c *RPCClient) signatureStatus(ctx context.Context, signature string) (*signatureStatus, error) {
	var result struct {
		Value []*signatureStatus `json:"value"`
	}
	params := []any{[]string{signature}, map[string]any{"searchTransactionHistory": true}}
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return nil, err
	}
	if len(result.Value) == 0 {
		return nil, nil
	}
	status := result.Value[0]
	if status != nil && len(status.Err) > 0 && string(status.Err) == "null" {
		status.Err = nil
	}
	return status, nil
}

func (c *RPCClient) transactionFee(ctx context.Context, signature string) (decimal.Decimal, error) {
	var result struct {
		Meta struct {
			Fee uint64 `json:"fee"`
		} `json:"meta"`
	}
	params := []any{signature, map[string]any{"encoding": "json", "maxSupportedTransactionVersion": 0}}
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return decimal.Zero, err
	}
	return decimal.New(int64(result.Meta.Fee), -solDecimals), nil
}
