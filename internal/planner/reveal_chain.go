package planner

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// revealOutputShape describes the output list for one position in a reveal
// chain, per the position rules in §4.5:
//
//	first of one:  [destination, service?]
//	first of many: [destination, next-commit, service?]
//	middle:        [destination, next-commit]
//	last:          [destination]
type revealOutputShape struct {
	hasNextCommit bool
	hasService    bool
}

func shapeFor(i, repeat int) revealOutputShape {
	switch {
	case i == 0 && repeat == 1:
		return revealOutputShape{hasNextCommit: false, hasService: true}
	case i == 0:
		return revealOutputShape{hasNextCommit: true, hasService: true}
	case i == repeat-1:
		return revealOutputShape{hasNextCommit: false, hasService: false}
	default:
		return revealOutputShape{hasNextCommit: true, hasService: false}
	}
}

// revealSizing is the result of the reverse sizing pass: per-position fee
// and the carried remainder, i.e. the value that position's funding output
// must carry beyond the position's own postage and fee (its next-commit
// output plus any service output).
type revealSizing struct {
	fees         []uint64
	remainders   []uint64
}

// sizeRevealChain performs the reverse (tail-to-head) sizing pass over the
// reveal chain: later reveals must be sized before earlier ones because each
// reveal's change output funds the fee and postage of everything after it.
// Each reveal is sized with a placeholder witness so its vsize equals the
// final signed transaction's.
func sizeRevealChain(cryptos []*RevealCrypto, destinations []Address, serviceFeeAddr Address, serviceFee uint64, targetPostage uint64, rate FeeRate, noLimit bool) (revealSizing, error) {
	repeat := len(cryptos)
	fees := make([]uint64, repeat)
	remainders := make([]uint64, repeat)

	for i := repeat - 1; i >= 0; i-- {
		shape := shapeFor(i, repeat)
		tx := &wire.MsgTx{Version: 2, TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{},
			Witness:          PlaceholderScriptPathWitness(cryptos[i].RevealScript, cryptos[i].ControlBlock),
		}}}

		dest := destinations[destIndex(i, len(destinations))]
		tx.AddTxOut(&wire.TxOut{Value: int64(targetPostage), PkScript: dest.Script()})
		if shape.hasNextCommit {
			tx.AddTxOut(&wire.TxOut{Value: int64(targetPostage), PkScript: cryptos[i+1].CommitAddress.Script()})
		}
		if shape.hasService && serviceFee > 0 {
			tx.AddTxOut(&wire.TxOut{Value: int64(serviceFee), PkScript: serviceFeeAddr.Script()})
		}

		if err := CheckWeight(tx, noLimit); err != nil {
			return revealSizing{}, fmt.Errorf("reveal %d: %w", i, err)
		}

		fees[i] = rate.Fee(Vsize(tx))
		var remain uint64
		if shape.hasNextCommit {
			remain += targetPostage + fees[i+1] + remainders[i+1]
		}
		if shape.hasService {
			remain += serviceFee
		}
		remainders[i] = remain
	}

	return revealSizing{fees: fees, remainders: remainders}, nil
}

func destIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	return i
}

// buildRevealChain performs the forward (head-to-tail) build pass: each
// reveal spends the previous transaction's commit-shaped output (or the
// commit transaction itself for i==0), signs the taproot script-path
// spend, and finalizes the witness.
func buildRevealChain(commitTxid chainhash.Hash, commitVout uint32, cryptos []*RevealCrypto, destinations []Address, serviceFeeAddr Address, serviceFee uint64, targetPostage uint64, sizing revealSizing, rate FeeRate, noLimit bool) (*RevealChain, []uint64, error) {
	repeat := len(cryptos)
	txs := make([]*wire.MsgTx, repeat)
	ids := make([]InscriptionID, repeat)
	prevOutFetchers := make([]*txscript.CannedPrevOutputFetcher, repeat)

	prevTxid, prevVout, prevValue := commitTxid, commitVout, targetPostage+sizing.fees[0]+sizing.remainders[0]

	for i := 0; i < repeat; i++ {
		shape := shapeFor(i, repeat)
		crypto := cryptos[i]

		tx := &wire.MsgTx{Version: 2, LockTime: 0}
		tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Hash: prevTxid, Index: prevVout}})

		dest := destinations[destIndex(i, len(destinations))]
		tx.AddTxOut(&wire.TxOut{Value: int64(targetPostage), PkScript: dest.Script()})
		if shape.hasNextCommit {
			nextValue := targetPostage + sizing.fees[i+1] + sizing.remainders[i+1]
			tx.AddTxOut(&wire.TxOut{Value: int64(nextValue), PkScript: cryptos[i+1].CommitAddress.Script()})
		}
		if shape.hasService && serviceFee > 0 {
			tx.AddTxOut(&wire.TxOut{Value: int64(serviceFee), PkScript: serviceFeeAddr.Script()})
		}

		if err := CheckDust(tx); err != nil {
			return nil, nil, fmt.Errorf("reveal %d: %w", i, err)
		}
		if err := CheckWeight(tx, noLimit); err != nil {
			return nil, nil, fmt.Errorf("reveal %d: %w", i, err)
		}

		prevOut := &wire.TxOut{Value: int64(prevValue), PkScript: crypto.CommitAddress.Script()}
		fetcher := txscript.NewCannedPrevOutputFetcher(prevOut.PkScript, prevOut.Value)
		prevOutFetchers[i] = fetcher

		sigHashes := txscript.NewTxSigHashes(tx, fetcher)
		leaf := txscript.NewBaseTapLeaf(crypto.RevealScript)
		sigHash, err := txscript.CalcTapscriptSignaturehash(sigHashes, txscript.SigHashDefault, tx, 0, fetcher, leaf)
		if err != nil {
			return nil, nil, fmt.Errorf("reveal %d: sighash: %w", i, err)
		}
		sig, err := schnorr.Sign(crypto.PrivateKey, sigHash)
		if err != nil {
			return nil, nil, fmt.Errorf("reveal %d: sign: %w", i, err)
		}

		tx.TxIn[0].Witness = wire.TxWitness{sig.Serialize(), crypto.RevealScript, crypto.ControlBlock}

		weight := Weight(tx)
		if !noLimit && weight > MaxStandardTxWeight {
			return nil, nil, fmt.Errorf("reveal %d: %w", i, ErrWeightExceeded)
		}

		txs[i] = tx
		ids[i] = InscriptionID{Txid: tx.TxHash(), Index: 0}

		prevTxid = tx.TxHash()
		prevVout = 1
		if shape.hasNextCommit {
			prevValue = targetPostage + sizing.fees[i+1] + sizing.remainders[i+1]
		}
	}

	return &RevealChain{Txs: txs, InscriptionIDs: ids}, sizing.fees, nil
}
