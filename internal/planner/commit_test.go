package planner

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
)

func TestPlanMintSingleInscription(t *testing.T) {
	source, _ := ParseAddress("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", mainNetParams())
	dest, _ := ParseAddress("bc1p5cyxnuxmeuwuvkwfem96lqzszd02n6xdcjrs20cac6yqjjwudpxqkedrcr", mainNetParams())

	collab := newFakeCollaborator()
	funding := testOutpoint(11, 0)
	collab.utxos[source.Encoded] = UtxoSet{funding: 100_000}

	req := MintRequest{
		Source:       source,
		Destinations: []Address{dest},
		Inscriptions: []Inscription{{Content: []byte("hi"), ContentType: "text/plain"}},
		ChangeAddress: source,
		FeeRate:      FeeRate(1),
		Network:      &chaincfg.MainNetParams,
	}

	plan, chain, envelope, err := PlanMint(context.Background(), collab, req)
	if err != nil {
		t.Fatalf("PlanMint() error = %v", err)
	}
	if len(plan.Tx.TxOut) == 0 {
		t.Fatal("commit tx should have at least the commit output")
	}
	if len(chain.Txs) != 1 {
		t.Fatalf("expected a single reveal tx, got %d", len(chain.Txs))
	}
	if len(envelope.InscriptionID) != 1 {
		t.Fatalf("expected a single inscription id, got %d", len(envelope.InscriptionID))
	}
	if envelope.CommitHex == "" {
		t.Error("commit hex should not be empty")
	}
	if len(envelope.RevealHex) != 1 || envelope.RevealHex[0] == "" {
		t.Error("reveal hex should be populated")
	}
	if envelope.ServiceFee == 0 {
		t.Error("expected a non-zero service fee for a non-whitelisted source")
	}
}

func TestPlanMintWhitelistedWaivesServiceFee(t *testing.T) {
	source, _ := ParseAddress("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", mainNetParams())
	dest, _ := ParseAddress("bc1p5cyxnuxmeuwuvkwfem96lqzszd02n6xdcjrs20cac6yqjjwudpxqkedrcr", mainNetParams())

	collab := newFakeCollaborator()
	funding := testOutpoint(12, 0)
	collab.utxos[source.Encoded] = UtxoSet{funding: 100_000}

	req := MintRequest{
		Source:        source,
		Destinations:  []Address{dest},
		Inscriptions:  []Inscription{{Content: []byte("hi"), ContentType: "text/plain"}},
		ChangeAddress: source,
		FeeRate:       FeeRate(1),
		Whitelisted:   true,
		Network:       &chaincfg.MainNetParams,
	}

	_, _, envelope, err := PlanMint(context.Background(), collab, req)
	if err != nil {
		t.Fatalf("PlanMint() error = %v", err)
	}
	if envelope.ServiceFee != 0 {
		t.Errorf("ServiceFee = %d, want 0 for whitelisted source", envelope.ServiceFee)
	}
}

func TestPlanMintRejectsMismatchedDestinations(t *testing.T) {
	source, _ := ParseAddress("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", mainNetParams())
	dest, _ := ParseAddress("bc1p5cyxnuxmeuwuvkwfem96lqzszd02n6xdcjrs20cac6yqjjwudpxqkedrcr", mainNetParams())
	collab := newFakeCollaborator()

	req := MintRequest{
		Source:       source,
		Destinations: []Address{dest, dest},
		Inscriptions: []Inscription{{Content: []byte("hi"), ContentType: "text/plain"}},
		FeeRate:      FeeRate(1),
		Network:      &chaincfg.MainNetParams,
	}
	_, _, _, err := PlanMint(context.Background(), collab, req)
	if err == nil {
		t.Fatal("expected bad-request error when destinations count is neither 1 nor repeat")
	}
}

func TestPlanMintMultipleInscriptionsChain(t *testing.T) {
	source, _ := ParseAddress("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", mainNetParams())
	dest, _ := ParseAddress("bc1p5cyxnuxmeuwuvkwfem96lqzszd02n6xdcjrs20cac6yqjjwudpxqkedrcr", mainNetParams())

	collab := newFakeCollaborator()
	funding := testOutpoint(13, 0)
	collab.utxos[source.Encoded] = UtxoSet{funding: 200_000}

	req := MintRequest{
		Source:       source,
		Destinations: []Address{dest},
		Inscriptions: []Inscription{
			{Content: []byte("one"), ContentType: "text/plain"},
			{Content: []byte("two"), ContentType: "text/plain"},
			{Content: []byte("three"), ContentType: "text/plain"},
		},
		ChangeAddress: source,
		FeeRate:       FeeRate(1),
		Network:       &chaincfg.MainNetParams,
	}

	plan, chain, envelope, err := PlanMint(context.Background(), collab, req)
	if err != nil {
		t.Fatalf("PlanMint() error = %v", err)
	}
	if len(chain.Txs) != 3 {
		t.Fatalf("expected a 3-reveal chain, got %d", len(chain.Txs))
	}
	if len(envelope.InscriptionID) != 3 {
		t.Fatalf("expected 3 inscription ids, got %d", len(envelope.InscriptionID))
	}
	// Every reveal but the last must carry a next-commit output paying the
	// following reveal's commit address.
	for i := 0; i < len(chain.Txs)-1; i++ {
		if len(chain.Txs[i].TxOut) < 2 {
			t.Errorf("reveal %d should have a next-commit output, got %d outputs", i, len(chain.Txs[i].TxOut))
		}
	}
	if len(chain.Txs[len(chain.Txs)-1].TxOut) != 1 {
		t.Errorf("final reveal should have exactly the destination output, got %d", len(chain.Txs[len(chain.Txs)-1].TxOut))
	}
	if plan.CommitVout != 0 {
		t.Errorf("CommitVout = %d, want 0", plan.CommitVout)
	}
}
