package planner

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// OutgoingKind selects how a transfer resolves the satoshi being moved
// (§4.6).
type OutgoingKind string

const (
	OutgoingSatpoint      OutgoingKind = "satpoint"
	OutgoingInscriptionID OutgoingKind = "inscription_id"
	OutgoingAmount        OutgoingKind = "amount"
)

// Outgoing names the thing a transfer moves.
type Outgoing struct {
	Kind          OutgoingKind
	Satpoint      Satpoint
	InscriptionID InscriptionID
	Amount        uint64
	// Brc20Transfer marks an InscriptionID outgoing whose anchor should be
	// synthesized at (txid=id.Txid, vout=0, offset=0) rather than resolved
	// through the inscription index, per the brc20_transfer convention.
	Brc20Transfer bool
}

// TransferRequest is the normalized input to transfer/transferWithFee
// (§4.6).
type TransferRequest struct {
	Source            Address
	Destination       Address
	Primary           Outgoing
	Additional        []Outgoing
	OpReturn          []byte
	ChangeAddress     Address
	FeeRate           FeeRate
	AdditionalFee     uint64
	ServiceFeeAddress Address
	ServiceFeePerItem uint64
	Whitelisted       bool
}

// resolveAnchor turns an Outgoing into the outpoint it must spend and the
// value carried by that outpoint, consulting the collaborator as needed.
func resolveAnchor(ctx context.Context, collab Collaborator, out Outgoing, utxos UtxoSet) (OutPoint, uint64, error) {
	switch out.Kind {
	case OutgoingSatpoint:
		op := out.Satpoint.Outpoint
		val, ok := utxos[op]
		if !ok {
			return OutPoint{}, 0, fmt.Errorf("%w: satpoint outpoint %s not in current utxo view", ErrStaleTransferAnchor, op)
		}
		return op, val, nil

	case OutgoingInscriptionID:
		var op OutPoint
		if out.Brc20Transfer {
			op = OutPoint{Txid: out.InscriptionID.Txid, Vout: 0}
		} else {
			sp, err := collab.InscriptionSatpoint(ctx, out.InscriptionID)
			if err != nil {
				return OutPoint{}, 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
			}
			op = sp.Outpoint
		}
		resolved, err := collab.UnspentOutputsByOutpoints(ctx, []OutPoint{op})
		if err != nil {
			return OutPoint{}, 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		val, ok := resolved[op]
		if !ok {
			return OutPoint{}, 0, fmt.Errorf("%w: inscription anchor %s no longer unspent", ErrStaleTransferAnchor, op)
		}
		return op, val, nil

	case OutgoingAmount:
		for op, val := range utxos {
			if val >= out.Amount {
				return op, val, nil
			}
		}
		return OutPoint{}, 0, ErrInsufficient

	default:
		return OutPoint{}, 0, fmt.Errorf("%w: unknown outgoing kind %q", ErrBadRequest, out.Kind)
	}
}

// PlanTransfer builds an unsigned transaction moving req.Primary (and any
// additional outgoings, which must share its kind) to req.Destination,
// funding the network fee from a separately selected cardinal UTXO when
// AdditionalFee/FeeRate require more than the anchor's own value covers.
func PlanTransfer(ctx context.Context, collab Collaborator, req TransferRequest) (*wire.MsgTx, uint64, error) {
	for _, add := range req.Additional {
		if add.Kind != req.Primary.Kind {
			return nil, 0, ErrBadOutgoing
		}
	}
	if err := req.FeeRate.Validate(); err != nil {
		return nil, 0, err
	}

	utxos, err := collab.UtxosAt(ctx, req.Source)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	inscribed, err := collab.InscriptionsAt(ctx, req.Source)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	outgoings := append([]Outgoing{req.Primary}, req.Additional...)
	anchors := make([]OutPoint, 0, len(outgoings))
	anchorValues := make([]uint64, 0, len(outgoings))
	for _, og := range outgoings {
		op, val, err := resolveAnchor(ctx, collab, og, utxos)
		if err != nil {
			return nil, 0, err
		}
		if og.Kind == OutgoingSatpoint {
			if _, inscribedAlready := inscribed[og.Satpoint]; inscribedAlready {
				// a satpoint outgoing is for moving a cardinal (uninscribed)
				// sat as an amount anchor; an inscribed satpoint must be
				// moved by inscription id instead.
				return nil, 0, fmt.Errorf("%w: satpoint %s already carries an inscription, use inscription_id", ErrAlreadyInscribed, og.Satpoint)
			}
		}
		anchors = append(anchors, op)
		anchorValues = append(anchorValues, val)
	}

	targetPostage := NormalizeTargetPostage(0) * uint64(len(outgoings))

	serviceFeeTotal := uint64(0)
	if !req.Whitelisted && req.ServiceFeePerItem > 0 {
		serviceFeeTotal = req.ServiceFeePerItem * uint64(len(outgoings))
	}

	tx := &wire.MsgTx{Version: 2}
	for _, op := range anchors {
		tx.AddTxIn(&wire.TxIn{PreviousOutPoint: op.wire()})
	}
	for range outgoings {
		tx.AddTxOut(&wire.TxOut{Value: int64(NormalizeTargetPostage(0)), PkScript: req.Destination.Script()})
	}
	if len(req.OpReturn) > 0 {
		script, err := opReturnScript(req.OpReturn)
		if err != nil {
			return nil, 0, err
		}
		tx.AddTxOut(&wire.TxOut{Value: 0, PkScript: script})
	}
	if serviceFeeTotal > 0 {
		tx.AddTxOut(&wire.TxOut{Value: int64(serviceFeeTotal), PkScript: req.ServiceFeeAddress.Script()})
	}

	var anchorTotal uint64
	for _, v := range anchorValues {
		anchorTotal += v
	}

	changeAddrType := req.ChangeAddress.Type
	placeholderVsize := Vsize(tx) + inputVsize(changeAddrType)*int64(len(anchors))
	fee := req.FeeRate.Fee(placeholderVsize) + req.AdditionalFee

	needed := targetPostage + serviceFeeTotal + fee
	if anchorTotal < needed {
		selection, err := SelectCardinalUtxos(SelectionInput{
			Utxos:         utxos,
			Inscribed:     inscribed.InscribedOutpoints(),
			Exclude:       outpointSet(anchors),
			FeeRate:       req.FeeRate,
			ChangeAddress: req.ChangeAddress,
		}, needed-anchorTotal, changeAddrType)
		if err != nil {
			return nil, 0, err
		}
		for _, op := range selection.Inputs {
			tx.AddTxIn(&wire.TxIn{PreviousOutPoint: op.wire()})
			anchorTotal += utxos[op]
		}
		fee += selection.Fee
		if change := anchorTotal - needed - selection.Fee; change >= DustThreshold(req.ChangeAddress.Script()) {
			tx.AddTxOut(&wire.TxOut{Value: int64(change), PkScript: req.ChangeAddress.Script()})
		}
	} else if anchorTotal-needed > 0 {
		change := anchorTotal - needed
		if change >= DustThreshold(req.ChangeAddress.Script()) {
			tx.AddTxOut(&wire.TxOut{Value: int64(change), PkScript: req.ChangeAddress.Script()})
		}
	}

	if err := CheckDust(tx); err != nil {
		return nil, 0, err
	}
	if err := CheckWeight(tx, false); err != nil {
		return nil, 0, err
	}

	return tx, fee, nil
}

func outpointSet(ops []OutPoint) map[OutPoint]struct{} {
	m := make(map[OutPoint]struct{}, len(ops))
	for _, op := range ops {
		m[op] = struct{}{}
	}
	return m
}

func opReturnScript(data []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().AddOp(txscript.OP_RETURN).AddData(data).Script()
}
