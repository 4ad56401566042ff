package planner

import "errors"

// Error kinds returned by the planner. Every error the planner produces is
// one of these, wrapped with context via fmt.Errorf("...: %w", ...); the
// HTTP shim type-switches on these with errors.Is to pick a status code.
var (
	// ErrInvalidAddress: address not valid for the selected network, or its
	// type is not in {P2TR, P2WPKH}.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrNoCardinalUtxos: the wallet view exposes no uninscribed UTXO.
	ErrNoCardinalUtxos = errors.New("no cardinal utxos")

	// ErrInsufficient: selected inputs cannot cover target + fee.
	ErrInsufficient = errors.New("insufficient funds")

	// ErrDustOutput: a planned output is below its script's dust threshold.
	ErrDustOutput = errors.New("output would be dust")

	// ErrWeightExceeded: a reveal transaction exceeds MaxStandardTxWeight.
	ErrWeightExceeded = errors.New("transaction weight exceeds standardness limit")

	// ErrAlreadyInscribed: the anchor satpoint or outpoint already carries
	// an inscription.
	ErrAlreadyInscribed = errors.New("satoshi already inscribed")

	// ErrBadOutgoing: additional outgoings mix satpoint/inscription-id kinds.
	ErrBadOutgoing = errors.New("additional outgoings must share the primary outgoing's kind")

	// ErrUpstreamUnavailable: a collaborator call failed.
	ErrUpstreamUnavailable = errors.New("upstream collaborator unavailable")

	// ErrBadRequest: malformed request parameters.
	ErrBadRequest = errors.New("bad request")

	// ErrStaleTransferAnchor: a brc20_transfer anchor's outpoint is no
	// longer present in the UTXO view supplied by the collaborator. This
	// resolves the open question flagged in the design notes rather than
	// silently building a transaction against a dangling prevout.
	ErrStaleTransferAnchor = errors.New("stale brc20 transfer anchor")
)
