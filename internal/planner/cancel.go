package planner

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// CancelRequest describes a set of prevouts to consolidate into a single
// destination output, net of the network fee (§4.7).
type CancelRequest struct {
	Inputs      []OutPoint
	InputValues UtxoSet
	InputTypes  map[OutPoint]AddressType
	Destination Address
	FeeRate     FeeRate
}

// PlanCancel builds the cancel/burn transaction: every input in req is
// spent into a single output at req.Destination, valued at the summed
// input amount minus the network fee. Rejects when the inputs don't cover
// their own fee.
func PlanCancel(req CancelRequest) (*wire.MsgTx, uint64, error) {
	if len(req.Inputs) == 0 {
		return nil, 0, fmt.Errorf("%w: no inputs to cancel", ErrBadRequest)
	}
	if err := req.FeeRate.Validate(); err != nil {
		return nil, 0, err
	}

	tx := &wire.MsgTx{Version: 2}
	var total uint64
	for _, op := range req.Inputs {
		val, ok := req.InputValues[op]
		if !ok {
			return nil, 0, fmt.Errorf("%w: input %s has no known value", ErrBadRequest, op)
		}
		typ, ok := req.InputTypes[op]
		if !ok {
			typ = AddressP2WPKH // conservative default: sizes at least as large as a P2TR spend
		}
		tx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: op.wire(),
			Witness:          PlaceholderWitness(typ),
		})
		total += val
	}

	tx.AddTxOut(&wire.TxOut{Value: int64(total), PkScript: req.Destination.Script()})

	fee := req.FeeRate.Fee(Vsize(tx))
	if total <= fee {
		return nil, 0, fmt.Errorf("%w: input amount %d not greater than network fee %d", ErrInsufficient, total, fee)
	}
	tx.TxOut[0].Value = int64(total - fee)

	if err := CheckDust(tx); err != nil {
		return nil, 0, err
	}

	for _, in := range tx.TxIn {
		in.Witness = nil
	}

	return tx, fee, nil
}
