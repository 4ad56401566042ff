package rpc

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/ordforge/inscribed/internal/config"
	"github.com/ordforge/inscribed/internal/planner"
)

func testServer(t *testing.T, collab *fakeCollaborator) *Server {
	t.Helper()
	return NewServer(collab, &chaincfg.MainNetParams, config.FeeConfig{
		DefaultFeeRateSatsPerVbyte: 1,
		TargetPostage:              10_000,
		ServiceFeePerItem:          1_000,
	})
}

func TestHandleMintSuccess(t *testing.T) {
	collab := newFakeCollaborator()
	source := "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	collab.utxos[source] = planner.UtxoSet{
		{Vout: 0}: 100_000,
	}

	s := testServer(t, collab)

	params, _ := json.Marshal(map[string]interface{}{
		"source":         source,
		"change_address": source,
		"content":        [][]byte{[]byte("hello")},
		"content_type":   []string{"text/plain"},
	})

	result, err := s.handleMint(context.Background(), params)
	if err != nil {
		t.Fatalf("handleMint() error = %v", err)
	}
	envelope, ok := result.(*planner.ResultEnvelope)
	if !ok {
		t.Fatalf("result type = %T, want *planner.ResultEnvelope", result)
	}
	if envelope.CommitHex == "" {
		t.Error("expected a non-empty commit hex")
	}
}

func TestHandleMintRejectsMultipleContentsWithoutMints(t *testing.T) {
	collab := newFakeCollaborator()
	s := testServer(t, collab)

	params, _ := json.Marshal(map[string]interface{}{
		"source":         "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
		"change_address": "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
		"content":        [][]byte{[]byte("a"), []byte("b")},
		"content_type":   []string{"text/plain", "text/plain"},
	})

	_, err := s.handleMint(context.Background(), params)
	if err == nil {
		t.Fatal("expected mint to reject more than one content item")
	}
}

func TestHandleMintWithPostageEnforcesFloor(t *testing.T) {
	collab := newFakeCollaborator()
	s := testServer(t, collab)

	params, _ := json.Marshal(map[string]interface{}{
		"source":         "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
		"change_address": "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
		"content":        [][]byte{[]byte("a")},
		"content_type":   []string{"text/plain"},
		"target_postage": 1,
	})

	_, err := s.handleMintWithPostage(context.Background(), params)
	if err == nil {
		t.Fatal("expected mintWithPostage to reject a below-floor target_postage")
	}
}

func TestHandleIsWhitelist(t *testing.T) {
	collab := newFakeCollaborator()
	addr := "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	collab.whitelisted[addr] = true
	s := testServer(t, collab)

	params, _ := json.Marshal(map[string]string{"address": addr})
	result, err := s.handleIsWhitelist(context.Background(), params)
	if err != nil {
		t.Fatalf("handleIsWhitelist() error = %v", err)
	}
	m, ok := result.(map[string]bool)
	if !ok || !m["whitelisted"] {
		t.Errorf("result = %v, want whitelisted=true", result)
	}
}

func TestHandleCancel(t *testing.T) {
	collab := newFakeCollaborator()
	source := "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	op := sampleTxid + ":0"
	cancelOp, err := parseOutpointString(op)
	if err != nil {
		t.Fatalf("parseOutpointString(%q) error = %v", op, err)
	}
	collab.utxos[source] = planner.UtxoSet{cancelOp: 50_000}

	s := testServer(t, collab)
	params, _ := json.Marshal(map[string]interface{}{
		"inputs":      []string{op},
		"destination": source,
		"fee_rate":    2,
	})

	result, err := s.handleCancel(context.Background(), params)
	if err != nil {
		t.Fatalf("handleCancel() error = %v", err)
	}
	m, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("result type = %T", result)
	}
	if m["tx_hex"] == "" {
		t.Error("expected a non-empty tx_hex")
	}
}

func TestDecodeParamsRejectsEmpty(t *testing.T) {
	var p mintParams
	if err := decodeParams(nil, &p); err == nil {
		t.Error("expected an error decoding empty params")
	}
}
