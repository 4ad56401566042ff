package planner

import (
	"context"

	"github.com/btcsuite/btcd/wire"
)

// Collaborator is everything the planner needs from the outside world: a
// wallet-scoped UTXO/inscription view and raw transaction lookups. The
// planner never holds a signing key or a broadcast path; both live with the
// caller of Collaborator, never inside it.
type Collaborator interface {
	// UtxosAt returns the cardinal and inscribed UTXO set controlled by
	// addr, as currently known to the backing index.
	UtxosAt(ctx context.Context, addr Address) (UtxoSet, error)

	// InscriptionsAt returns every inscription presently anchored to a
	// satpoint within addr's UTXO set.
	InscriptionsAt(ctx context.Context, addr Address) (InscriptionIndex, error)

	// InscriptionSatpoint resolves an inscription id to its current
	// satpoint, or ErrInvalidAddress-class not-found if untracked.
	InscriptionSatpoint(ctx context.Context, id InscriptionID) (Satpoint, error)

	// GetTxs fetches raw transactions by txid, in the order requested.
	GetTxs(ctx context.Context, txids []OutPoint) ([]*wire.MsgTx, error)

	// IsWhitelisted reports whether addr is exempt from the service fee.
	IsWhitelisted(ctx context.Context, addr Address) (bool, error)

	// UnspentOutputsByOutpoints resolves a specific set of outpoints to
	// their current values, used to validate a caller-supplied anchor
	// still exists in the live UTXO view (StaleTransferAnchor checking).
	UnspentOutputsByOutpoints(ctx context.Context, outpoints []OutPoint) (UtxoSet, error)
}
