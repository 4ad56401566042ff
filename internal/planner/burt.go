package planner

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// BurnRequest aggregates every input of a set of prior transactions into a
// single consolidated output (§4.7, the "burt" operation).
type BurnRequest struct {
	PriorTxs    []*wire.MsgTx
	Destination Address
	InputTypes  map[OutPoint]AddressType
}

// BurnResult reports the consolidated transaction and the fee rate it
// effectively pays, computed from the destination value rather than an
// explicit target rate: the burn spends everything available, so the fee
// floats with the inputs rather than the inputs being sized to the fee.
type BurnResult struct {
	Tx          *wire.MsgTx
	MinFeeRate  float64
}

// PlanBurn concatenates the inputs of every transaction in req.PriorTxs
// into one input list, sums their total output value, and pays it (minus
// nothing — the caller funds the eventual broadcast fee out of band via
// MinFeeRate reporting) to a single destination output.
func PlanBurn(req BurnRequest) (*BurnResult, error) {
	if len(req.PriorTxs) == 0 {
		return nil, fmt.Errorf("%w: no prior transactions to burn", ErrBadRequest)
	}

	tx := &wire.MsgTx{Version: 2}
	var lastOutputAmount uint64
	for _, prior := range req.PriorTxs {
		for _, in := range prior.TxIn {
			op := OutPoint{Txid: in.PreviousOutPoint.Hash, Vout: in.PreviousOutPoint.Index}
			tx.AddTxIn(&wire.TxIn{
				PreviousOutPoint: in.PreviousOutPoint,
				Witness:          PlaceholderWitness(req.InputTypes[op]),
			})
		}
		for _, out := range prior.TxOut {
			lastOutputAmount += uint64(out.Value)
		}
	}

	tx.AddTxOut(&wire.TxOut{Value: int64(lastOutputAmount), PkScript: req.Destination.Script()})

	vsize := Vsize(tx)
	if vsize <= 0 {
		return nil, fmt.Errorf("%w: degenerate burn transaction", ErrBadRequest)
	}
	minFeeRate := float64(lastOutputAmount) / float64(vsize)

	for _, in := range tx.TxIn {
		in.Witness = nil
	}

	return &BurnResult{Tx: tx, MinFeeRate: minFeeRate}, nil
}
