package rpc

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/wire"

	"github.com/ordforge/inscribed/internal/planner"
)

type fakeCollaborator struct {
	utxos        map[string]planner.UtxoSet
	inscriptions map[string]planner.InscriptionIndex
	whitelisted  map[string]bool
}

func newFakeCollaborator() *fakeCollaborator {
	return &fakeCollaborator{
		utxos:        map[string]planner.UtxoSet{},
		inscriptions: map[string]planner.InscriptionIndex{},
		whitelisted:  map[string]bool{},
	}
}

func (f *fakeCollaborator) UtxosAt(ctx context.Context, addr planner.Address) (planner.UtxoSet, error) {
	return f.utxos[addr.Encoded], nil
}

func (f *fakeCollaborator) InscriptionsAt(ctx context.Context, addr planner.Address) (planner.InscriptionIndex, error) {
	return f.inscriptions[addr.Encoded], nil
}

func (f *fakeCollaborator) InscriptionSatpoint(ctx context.Context, id planner.InscriptionID) (planner.Satpoint, error) {
	return planner.Satpoint{}, fmt.Errorf("%w: no inscriptions tracked in this fake", planner.ErrInvalidAddress)
}

func (f *fakeCollaborator) GetTxs(ctx context.Context, txids []planner.OutPoint) ([]*wire.MsgTx, error) {
	return nil, fmt.Errorf("GetTxs not used by these tests")
}

func (f *fakeCollaborator) IsWhitelisted(ctx context.Context, addr planner.Address) (bool, error) {
	return f.whitelisted[addr.Encoded], nil
}

func (f *fakeCollaborator) UnspentOutputsByOutpoints(ctx context.Context, outpoints []planner.OutPoint) (planner.UtxoSet, error) {
	out := planner.UtxoSet{}
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
