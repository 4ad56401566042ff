// Package collaborator implements planner.Collaborator against a
// mempool.space-protocol HTTP view of the chain, backed by an
// *store.Store for the inscription index and whitelist.
package collaborator

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordforge/inscribed/internal/planner"
	"github.com/ordforge/inscribed/internal/store"
)

func parseOutpointHash(s string) (chainhash.Hash, error) {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("parse txid %q: %w", s, err)
	}
	return *h, nil
}

// HTTPView is a planner.Collaborator that resolves UTXOs and raw
// transactions against a mempool.space-compatible HTTP API and delegates
// inscription-index and whitelist lookups to a local Store.
//
// Requests go to baseURL with no-cache headers; a 429 or any other non-200
// status is reported as planner.ErrUpstreamUnavailable.
type HTTPView struct {
	baseURL    string
	httpClient *http.Client
	store      *store.Store

	mu sync.RWMutex
}

// New returns an HTTPView backed by baseURL (a mempool.space-compatible API
// root, e.g. "https://mempool.space/api") and idx for everything the HTTP
// view cannot answer.
func New(baseURL string, idx *store.Store) *HTTPView {
	return &HTTPView{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      idx,
	}
}

// UtxosAt implements planner.Collaborator.
func (h *HTTPView) UtxosAt(ctx context.Context, addr planner.Address) (planner.UtxoSet, error) {
	var result []struct {
		TxID   string `json:"txid"`
		Vout   uint32 `json:"vout"`
		Status struct {
			Confirmed bool `json:"confirmed"`
		} `json:"status"`
		Value uint64 `json:"value"`
	}
	if err := h.get(ctx, "/address/"+addr.Encoded+"/utxo", &result); err != nil {
		return nil, err
	}

	out := planner.UtxoSet{}
	for _, u := range result {
		txid, err := parseOutpointHash(u.TxID)
		if err != nil {
			return nil, err
		}
		out[planner.OutPoint{Txid: txid, Vout: u.Vout}] = u.Value
	}
	return out, nil
}

// InscriptionsAt implements planner.Collaborator by delegating to the
// local index: the HTTP view has no concept of inscriptions.
func (h *HTTPView) InscriptionsAt(ctx context.Context, addr planner.Address) (planner.InscriptionIndex, error) {
	return h.store.InscriptionsAt(ctx, addr)
}

// InscriptionSatpoint implements planner.Collaborator.
func (h *HTTPView) InscriptionSatpoint(ctx context.Context, id planner.InscriptionID) (planner.Satpoint, error) {
	return h.store.InscriptionSatpoint(ctx, id)
}

// GetTxs implements planner.Collaborator, fetching each raw transaction by
// hex and deserializing it.
func (h *HTTPView) GetTxs(ctx context.Context, txids []planner.OutPoint) ([]*wire.MsgTx, error) {
	out := make([]*wire.MsgTx, len(txids))
	for i, op := range txids {
		raw, err := h.getRawTx(ctx, op.Txid.String())
		if err != nil {
			return nil, err
		}
		tx := &wire.MsgTx{}
		if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("deserialize tx %s: %w", op.Txid, err)
		}
		out[i] = tx
	}
	return out, nil
}

// IsWhitelisted implements planner.Collaborator.
func (h *HTTPView) IsWhitelisted(ctx context.Context, addr planner.Address) (bool, error) {
	return h.store.IsWhitelisted(ctx, addr)
}

// UnspentOutputsByOutpoints implements planner.Collaborator by querying the
// mempool.space outspend endpoint once per requested outpoint. Outpoints
// whose lookup fails are left out of the result without an error.
func (h *HTTPView) UnspentOutputsByOutpoints(ctx context.Context, outpoints []planner.OutPoint) (planner.UtxoSet, error) {
	out := planner.UtxoSet{}
	for _, op := range outpoints {
		var outspend struct {
			Spent bool `json:"spent"`
		}
		if err := h.get(ctx, fmt.Sprintf("/tx/%s/outspend/%d", op.Txid.String(), op.Vout), &outspend); err != nil {
			continue
		}
		if outspend.Spent {
			continue
		}
		var txResult struct {
			Vout []struct {
				Value uint64 `json:"value"`
			} `json:"vout"`
		}
		if err := h.get(ctx, "/tx/"+op.Txid.String(), &txResult); err != nil {
			continue
		}
		if int(op.Vout) < len(txResult.Vout) {
			out[op] = txResult.Vout[op.Vout].Value
		}
	}
	return out, nil
}

// SyncAddress refreshes the local index's cardinal UTXO set for addr from
// the upstream HTTP view, used by the sync binary's poll loop (§6).
func (h *HTTPView) SyncAddress(ctx context.Context, addr planner.Address) error {
	utxos, err := h.UtxosAt(ctx, addr)
	if err != nil {
		return err
	}
	for op, value := range utxos {
		if err := h.store.UpsertUtxo(ctx, addr, op, value); err != nil {
			return fmt.Errorf("upsert utxo %s: %w", op, err)
		}
	}
	return nil
}

func (h *HTTPView) getRawTx(ctx context.Context, txid string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/tx/"+txid+"/hex", nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", planner.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: tx %s status %d", planner.ErrUpstreamUnavailable, txid, resp.StatusCode)
	}
	hexBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(strings.TrimSpace(string(hexBody)))
}

func (h *HTTPView) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", planner.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: rate limited", planner.ErrUpstreamUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status %d: %s", planner.ErrUpstreamUnavailable, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, result)
}
