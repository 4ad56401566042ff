package planner

import (
	"math"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

func TestDustThreshold(t *testing.T) {
	tr, err := ParseAddress("bc1p5cyxnuxmeuwuvkwfem96lqzszd02n6xdcjrs20cac6yqjjwudpxqkedrcr", &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("parse taproot address: %v", err)
	}
	wpkh, err := ParseAddress("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("parse p2wpkh address: %v", err)
	}

	if got := DustThreshold(tr.Script()); got != DustP2TR {
		t.Errorf("DustThreshold(p2tr) = %d, want %d", got, DustP2TR)
	}
	if got := DustThreshold(wpkh.Script()); got != DustP2WPKH {
		t.Errorf("DustThreshold(p2wpkh) = %d, want %d", got, DustP2WPKH)
	}
}

func TestFeeRateValidate(t *testing.T) {
	tests := []struct {
		name    string
		rate    FeeRate
		wantErr bool
	}{
		{"zero", 0, false},
		{"positive", 12.5, false},
		{"negative", -1, true},
		{"nan", FeeRate(math.NaN()), true},
		{"inf", FeeRate(math.Inf(1)), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rate.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFeeRateFee(t *testing.T) {
	rate := FeeRate(2)
	if got := rate.Fee(100); got != 200 {
		t.Errorf("Fee(100) = %d, want 200", got)
	}
	// Fractional rate must round up, never underpay.
	rate = FeeRate(1.1)
	if got := rate.Fee(10); got != 11 {
		t.Errorf("Fee(10) = %d, want 11", got)
	}
}

func TestVsizeMatchesStrippedForNonWitnessTx(t *testing.T) {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{}})
	tx.AddTxOut(&wire.TxOut{Value: 1000, PkScript: []byte{0x00}})

	vsize := Vsize(tx)
	if vsize <= 0 {
		t.Fatalf("Vsize() = %d, want positive", vsize)
	}
	if Weight(tx) != vsize*WitnessScaleFactor {
		t.Errorf("weight/vsize mismatch for a non-witness tx: weight=%d vsize=%d", Weight(tx), vsize)
	}
}

func TestCheckDust(t *testing.T) {
	tx := wire.NewMsgTx(2)
	wpkh, _ := ParseAddress("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", &chaincfg.MainNetParams)
	tx.AddTxOut(&wire.TxOut{Value: int64(DustP2WPKH - 1), PkScript: wpkh.Script()})

	if err := CheckDust(tx); err == nil {
		t.Error("expected dust error for under-threshold output")
	}

	tx.TxOut[0].Value = int64(DustP2WPKH)
	if err := CheckDust(tx); err != nil {
		t.Errorf("unexpected dust error at exact threshold: %v", err)
	}
}

func TestCheckWeight(t *testing.T) {
	tx := wire.NewMsgTx(2)
	tx.AddTxOut(&wire.TxOut{Value: 1000, PkScript: []byte{0x00}})

	if err := CheckWeight(tx, false); err != nil {
		t.Errorf("small tx should pass weight check: %v", err)
	}
	if err := CheckWeight(tx, true); err != nil {
		t.Errorf("no_limit should always pass: %v", err)
	}
}

func TestNormalizeTargetPostage(t *testing.T) {
	tests := []struct {
		requested uint64
		want      uint64
	}{
		{0, TargetPostage},
		{1, MinTargetPostage},
		{MinTargetPostage, MinTargetPostage},
		{50_000, 50_000},
	}
	for _, tc := range tests {
		if got := NormalizeTargetPostage(tc.requested); got != tc.want {
			t.Errorf("NormalizeTargetPostage(%d) = %d, want %d", tc.requested, got, tc.want)
		}
	}
}

func TestPlaceholderWitnessSizesMatchFinal(t *testing.T) {
	w := PlaceholderWitness(AddressP2TR)
	if len(w) != 1 || len(w[0]) != schnorrSignatureSize {
		t.Errorf("p2tr placeholder witness shape = %v, want single 64-byte item", w)
	}

	w = PlaceholderWitness(AddressP2WPKH)
	if len(w) != 2 {
		t.Fatalf("p2wpkh placeholder witness should have 2 items, got %d", len(w))
	}
}
