package planner

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// fakeCollaborator is an in-memory Collaborator for testing, independent of
// any store or HTTP transport.
type fakeCollaborator struct {
	utxos        map[string]UtxoSet
	inscriptions map[string]InscriptionIndex
	satpoints    map[InscriptionID]Satpoint
	whitelisted  map[string]bool
	txs          map[OutPoint]*wire.MsgTx
}

func newFakeCollaborator() *fakeCollaborator {
	return &fakeCollaborator{
		utxos:        map[string]UtxoSet{},
		inscriptions: map[string]InscriptionIndex{},
		satpoints:    map[InscriptionID]Satpoint{},
		whitelisted:  map[string]bool{},
		txs:          map[OutPoint]*wire.MsgTx{},
	}
}

func (f *fakeCollaborator) UtxosAt(ctx context.Context, addr Address) (UtxoSet, error) {
	return f.utxos[addr.Encoded], nil
}

func (f *fakeCollaborator) InscriptionsAt(ctx context.Context, addr Address) (InscriptionIndex, error) {
	return f.inscriptions[addr.Encoded], nil
}

func (f *fakeCollaborator) InscriptionSatpoint(ctx context.Context, id InscriptionID) (Satpoint, error) {
	sp, ok := f.satpoints[id]
	if !ok {
		return Satpoint{}, fmt.Errorf("%w: unknown inscription %s", ErrInvalidAddress, id)
	}
	return sp, nil
}

func (f *fakeCollaborator) GetTxs(ctx context.Context, txids []OutPoint) ([]*wire.MsgTx, error) {
	out := make([]*wire.MsgTx, len(txids))
	for i, op := range txids {
		tx, ok := f.txs[op]
		if !ok {
			return nil, fmt.Errorf("unknown tx for %s", op)
		}
		out[i] = tx
	}
	return out, nil
}

func (f *fakeCollaborator) IsWhitelisted(ctx context.Context, addr Address) (bool, error) {
	return f.whitelisted[addr.Encoded], nil
}

func (f *fakeCollaborator) UnspentOutputsByOutpoints(ctx context.Context, outpoints []OutPoint) (UtxoSet, error) {
	out := UtxoSet{}
	for _, addrUtxos := range f.utxos {
		for op, val := range addrUtxos {
			for _, want := range outpoints {
				if op == want {
					out[op] = val
				}
			}
		}
	}
	return out, nil
}
