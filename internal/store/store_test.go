package store

import (
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/ordforge/inscribed/internal/planner"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testAddress(t *testing.T) planner.Address {
	t.Helper()
	addr, err := planner.ParseAddress("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("ParseAddress() error = %v", err)
	}
	return addr
}

func testOutPoint(t *testing.T, txid string, vout uint32) planner.OutPoint {
	t.Helper()
	op, err := parseOutPoint(txid, vout)
	if err != nil {
		t.Fatalf("parseOutPoint() error = %v", err)
	}
	return op
}

const sampleTxid1 = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
const sampleTxid2 = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

func TestUpsertAndQueryUtxos(t *testing.T) {
	s := newTestStore(t)
	addr := testAddress(t)
	op := testOutPoint(t, sampleTxid1, 0)
	ctx := context.Background()

	if err := s.UpsertUtxo(ctx, addr, op, 50_000); err != nil {
		t.Fatalf("UpsertUtxo() error = %v", err)
	}

	utxos, err := s.UtxosAt(ctx, addr)
	if err != nil {
		t.Fatalf("UtxosAt() error = %v", err)
	}
	if utxos[op] != 50_000 {
		t.Errorf("utxos[op] = %d, want 50000", utxos[op])
	}

	if err := s.UpsertUtxo(ctx, addr, op, 75_000); err != nil {
		t.Fatalf("UpsertUtxo() update error = %v", err)
	}
	utxos, err = s.UtxosAt(ctx, addr)
	if err != nil {
		t.Fatalf("UtxosAt() error = %v", err)
	}
	if utxos[op] != 75_000 {
		t.Errorf("utxos[op] after update = %d, want 75000", utxos[op])
	}
}

func TestDeleteUtxo(t *testing.T) {
	s := newTestStore(t)
	addr := testAddress(t)
	op := testOutPoint(t, sampleTxid1, 1)
	ctx := context.Background()

	if err := s.UpsertUtxo(ctx, addr, op, 1_000); err != nil {
		t.Fatalf("UpsertUtxo() error = %v", err)
	}
	if err := s.DeleteUtxo(ctx, op); err != nil {
		t.Fatalf("DeleteUtxo() error = %v", err)
	}
	utxos, err := s.UtxosAt(ctx, addr)
	if err != nil {
		t.Fatalf("UtxosAt() error = %v", err)
	}
	if _, ok := utxos[op]; ok {
		t.Error("expected deleted utxo to be absent")
	}
}

func TestRecordAndResolveInscription(t *testing.T) {
	s := newTestStore(t)
	addr := testAddress(t)
	ctx := context.Background()

	sp := planner.Satpoint{Outpoint: testOutPoint(t, sampleTxid1, 0), Offset: 0}
	id := planner.InscriptionID{Txid: testOutPoint(t, sampleTxid2, 0).Txid, Index: 0}

	if err := s.RecordInscription(ctx, addr, sp, id); err != nil {
		t.Fatalf("RecordInscription() error = %v", err)
	}

	idx, err := s.InscriptionsAt(ctx, addr)
	if err != nil {
		t.Fatalf("InscriptionsAt() error = %v", err)
	}
	if got, ok := idx[sp]; !ok || got != id {
		t.Errorf("InscriptionsAt()[sp] = %v, ok=%v, want %v", got, ok, id)
	}

	resolved, err := s.InscriptionSatpoint(ctx, id)
	if err != nil {
		t.Fatalf("InscriptionSatpoint() error = %v", err)
	}
	if resolved != sp {
		t.Errorf("InscriptionSatpoint() = %v, want %v", resolved, sp)
	}
}

func TestInscriptionSatpointUnknown(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.InscriptionSatpoint(ctx, planner.InscriptionID{Txid: testOutPoint(t, sampleTxid1, 0).Txid, Index: 9})
	if err == nil {
		t.Fatal("expected an error for an untracked inscription id")
	}
}

func TestWhitelist(t *testing.T) {
	s := newTestStore(t)
	addr := testAddress(t)
	ctx := context.Background()

	whitelisted, err := s.IsWhitelisted(ctx, addr)
	if err != nil {
		t.Fatalf("IsWhitelisted() error = %v", err)
	}
	if whitelisted {
		t.Error("address should not be whitelisted by default")
	}

	if err := s.SetWhitelisted(ctx, addr, true, time.Unix(0, 0)); err != nil {
		t.Fatalf("SetWhitelisted(true) error = %v", err)
	}
	whitelisted, err = s.IsWhitelisted(ctx, addr)
	if err != nil {
		t.Fatalf("IsWhitelisted() error = %v", err)
	}
	if !whitelisted {
		t.Error("address should be whitelisted after SetWhitelisted(true)")
	}

	if err := s.SetWhitelisted(ctx, addr, false, time.Unix(0, 0)); err != nil {
		t.Fatalf("SetWhitelisted(false) error = %v", err)
	}
	whitelisted, err = s.IsWhitelisted(ctx, addr)
	if err != nil {
		t.Fatalf("IsWhitelisted() error = %v", err)
	}
	if whitelisted {
		t.Error("address should not be whitelisted after SetWhitelisted(false)")
	}
}

func TestUnspentOutputsByOutpoints(t *testing.T) {
	s := newTestStore(t)
	addr := testAddress(t)
	ctx := context.Background()

	present := testOutPoint(t, sampleTxid1, 0)
	absent := testOutPoint(t, sampleTxid2, 0)
	if err := s.UpsertUtxo(ctx, addr, present, 12_345); err != nil {
		t.Fatalf("UpsertUtxo() error = %v", err)
	}

	result, err := s.UnspentOutputsByOutpoints(ctx, []planner.OutPoint{present, absent})
	if err != nil {
		t.Fatalf("UnspentOutputsByOutpoints() error = %v", err)
	}
	if result[present] != 12_345 {
		t.Errorf("result[present] = %d, want 12345", result[present])
	}
	if _, ok := result[absent]; ok {
		t.Error("absent outpoint should not appear in the result")
	}
}

func TestReorgHeightDiscardsAffectedUtxos(t *testing.T) {
	s := newTestStore(t)
	addr := testAddress(t)
	ctx := context.Background()

	low := testOutPoint(t, sampleTxid1, 0)
	high := testOutPoint(t, sampleTxid2, 0)

	if err := s.UpsertUtxo(ctx, addr, low, 1_000); err != nil {
		t.Fatalf("UpsertUtxo() error = %v", err)
	}
	if err := s.UpsertUtxo(ctx, addr, high, 2_000); err != nil {
		t.Fatalf("UpsertUtxo() error = %v", err)
	}

	if err := s.ReorgHeight(ctx, 0); err != nil {
		t.Fatalf("ReorgHeight() error = %v", err)
	}

	utxos, err := s.UtxosAt(ctx, addr)
	if err != nil {
		t.Fatalf("UtxosAt() error = %v", err)
	}
	if len(utxos) != 0 {
		t.Errorf("expected all utxos at height 0 to be discarded by a reorg to height 0, got %d remaining", len(utxos))
	}
}

func TestSyncHeight(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	height, err := s.SyncHeight(ctx, "btc")
	if err != nil {
		t.Fatalf("SyncHeight() error = %v", err)
	}
	if height != 0 {
		t.Errorf("SyncHeight() for an untracked chain = %d, want 0", height)
	}

	if err := s.SetSyncHeight(ctx, "btc", 800_000, time.Unix(0, 0)); err != nil {
		t.Fatalf("SetSyncHeight() error = %v", err)
	}
	height, err = s.SyncHeight(ctx, "btc")
	if err != nil {
		t.Fatalf("SyncHeight() error = %v", err)
	}
	if height != 800_000 {
		t.Errorf("SyncHeight() = %d, want 800000", height)
	}
}
