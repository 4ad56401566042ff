package planner

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

// MintRequest is the normalized input to a mint/mints/mintWithPostage call
// (§4.4, §6). One Inscription per reveal position; Destinations holds
// either a single address (applied to every position) or one per position.
type MintRequest struct {
	Source            Address
	Destinations      []Address
	Inscriptions      []Inscription
	ChangeAddress     Address
	ServiceFeeAddress Address
	FeeRate           FeeRate
	TargetPostage     uint64
	ServiceFeePerItem uint64
	Whitelisted       bool
	NoLimit           bool
	Network           *chaincfg.Params
}

// PlanMint runs the full commit/reveal planning algorithm (C2 through C5):
// it derives an ephemeral taproot commitment per inscription, sizes the
// reveal chain tail-to-head, selects cardinal inputs to fund the head
// commit output, builds the unsigned commit transaction, and builds and
// signs every reveal in the chain.
//
// The planner never signs a commit input and never broadcasts; it hands the
// caller a PSBT and a serialized reveal chain instead.
func PlanMint(ctx context.Context, collab Collaborator, req MintRequest) (*CommitPlan, *RevealChain, *ResultEnvelope, error) {
	repeat := len(req.Inscriptions)
	if repeat == 0 {
		return nil, nil, nil, fmt.Errorf("%w: no inscriptions requested", ErrBadRequest)
	}
	if len(req.Destinations) != 1 && len(req.Destinations) != repeat {
		return nil, nil, nil, fmt.Errorf("%w: destinations must be length 1 or %d, got %d", ErrBadRequest, repeat, len(req.Destinations))
	}
	if err := req.FeeRate.Validate(); err != nil {
		return nil, nil, nil, err
	}

	targetPostage := NormalizeTargetPostage(req.TargetPostage)

	serviceFeePerItem := req.ServiceFeePerItem
	if req.Whitelisted {
		serviceFeePerItem = 0
	} else if serviceFeePerItem == 0 {
		serviceFeePerItem = DefaultServiceFee
	}
	serviceFee := serviceFeePerItem * uint64(repeat)
	if serviceFee > 0 && serviceFee < MinServiceFeeOutput {
		serviceFee = MinServiceFeeOutput
	}

	cryptos := make([]*RevealCrypto, repeat)
	for i, insc := range req.Inscriptions {
		rc, err := BuildRevealCrypto(insc, req.Network)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("inscription %d: %w", i, err)
		}
		if err := rc.VerifyCommitKeyClosure(); err != nil {
			return nil, nil, nil, fmt.Errorf("inscription %d: %w", i, err)
		}
		cryptos[i] = rc
	}

	sizing, err := sizeRevealChain(cryptos, req.Destinations, req.ServiceFeeAddress, serviceFee, targetPostage, req.FeeRate, req.NoLimit)
	if err != nil {
		return nil, nil, nil, err
	}

	headValue := targetPostage + sizing.fees[0] + sizing.remainders[0]

	inscribedIdx, err := collab.InscriptionsAt(ctx, req.Source)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	utxos, err := collab.UtxosAt(ctx, req.Source)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	selection, err := SelectCardinalUtxos(SelectionInput{
		Utxos:         utxos,
		Inscribed:     inscribedIdx.InscribedOutpoints(),
		FeeRate:       req.FeeRate,
		ChangeAddress: req.ChangeAddress,
	}, headValue, req.ChangeAddress.Type)
	if err != nil {
		return nil, nil, nil, err
	}

	commitTx := &wire.MsgTx{Version: 2}
	witnessUtxos := make(map[OutPoint]*wire.TxOut, len(selection.Inputs))
	for _, op := range selection.Inputs {
		commitTx.AddTxIn(&wire.TxIn{PreviousOutPoint: op.wire()})
		witnessUtxos[op] = &wire.TxOut{Value: int64(utxos[op]), PkScript: req.Source.Script()}
	}
	commitTx.AddTxOut(&wire.TxOut{Value: int64(headValue), PkScript: cryptos[0].CommitAddress.Script()})

	changeVal := selection.Total - headValue - selection.Fee
	if changeVal > 0 {
		if changeVal >= DustThreshold(req.ChangeAddress.Script()) {
			commitTx.AddTxOut(&wire.TxOut{Value: int64(changeVal), PkScript: req.ChangeAddress.Script()})
		}
		// below-dust remainder silently folds into the network fee.
	}

	if err := CheckDust(commitTx); err != nil {
		return nil, nil, nil, err
	}

	commitPlan := &CommitPlan{
		Tx:            commitTx,
		WitnessUtxos:  witnessUtxos,
		CommitVout:    0,
		CommitAddress: cryptos[0].CommitAddress,
		PerRevealFees: sizing.fees,
	}

	revealChain, _, err := buildRevealChain(commitTx.TxHash(), 0, cryptos, req.Destinations, req.ServiceFeeAddress, serviceFee, targetPostage, sizing, req.FeeRate, req.NoLimit)
	if err != nil {
		return nil, nil, nil, err
	}

	commitHex, err := commitPSBTHex(commitPlan)
	if err != nil {
		return nil, nil, nil, err
	}
	commitCustom, err := commitCustomLines(commitPlan)
	if err != nil {
		return nil, nil, nil, err
	}
	revealHex := make([]string, len(revealChain.Txs))
	for i, tx := range revealChain.Txs {
		h, err := SerializeTxHex(tx)
		if err != nil {
			return nil, nil, nil, err
		}
		revealHex[i] = h
	}

	var totalServiceFee, totalNetworkFee uint64
	if !req.Whitelisted {
		totalServiceFee = serviceFee
	}
	totalNetworkFee = selection.Fee
	for _, f := range sizing.fees {
		totalNetworkFee += f
	}

	envelope := &ResultEnvelope{
		CommitHex:     commitHex,
		CommitCustom:  commitCustom,
		RevealHex:     revealHex,
		InscriptionID: revealChain.InscriptionIDs,
		ServiceFee:    totalServiceFee,
		SatpointFee:   targetPostage * uint64(repeat),
		NetworkFee:    totalNetworkFee,
	}

	return commitPlan, revealChain, envelope, nil
}

// SerializeTxHex serializes tx to its wire-format hex encoding.
func SerializeTxHex(tx *wire.MsgTx) (string, error) {
	var buf []byte
	w := byteWriter{&buf}
	if err := tx.Serialize(w); err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// byteWriter adapts a []byte slot to io.Writer without pulling in
// bytes.Buffer for a single append.
type byteWriter struct {
	buf *[]byte
}

func (w byteWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}

// buildCommitPSBT assembles the commit transaction's PSBT, attaching the
// WitnessUtxo for every input the planner already knows the value and
// scriptPubKey of.
func buildCommitPSBT(plan *CommitPlan) (*psbt.Packet, error) {
	p, err := psbt.NewFromUnsignedTx(plan.Tx)
	if err != nil {
		return nil, fmt.Errorf("build commit psbt: %w", err)
	}
	for i, in := range plan.Tx.TxIn {
		op := OutPoint{Txid: in.PreviousOutPoint.Hash, Vout: in.PreviousOutPoint.Index}
		if utxo, ok := plan.WitnessUtxos[op]; ok {
			p.Inputs[i].WitnessUtxo = utxo
		}
	}
	return p, nil
}

// commitPSBTHex returns the commit PSBT's raw serialization, hex-encoded
// (§6: commit = hex(PSBT)).
func commitPSBTHex(plan *CommitPlan) (string, error) {
	p, err := buildCommitPSBT(plan)
	if err != nil {
		return "", err
	}
	var buf []byte
	w := byteWriter{&buf}
	if err := p.Serialize(w); err != nil {
		return "", fmt.Errorf("serialize commit psbt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// commitCustomLines flattens the commit transaction's spent outpoints into
// "txid:vout" pairs alongside its PSBT serialization, for callers that want
// to co-sign the commit with an external wallet rather than a raw PSBT.
func commitCustomLines(plan *CommitPlan) ([]string, error) {
	psbtHex, err := commitPSBTHex(plan)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(plan.Tx.TxIn)+1)
	lines = append(lines, psbtHex)
	for _, in := range plan.Tx.TxIn {
		lines = append(lines, fmt.Sprintf("%s:%d", in.PreviousOutPoint.Hash.String(), in.PreviousOutPoint.Index))
	}
	return lines, nil
}
