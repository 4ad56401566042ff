// Package planner implements the inscription transaction planner: the
// arithmetic and topology of commit/reveal transaction graphs for
// taproot-based inscriptions, UTXO selection over an inscription-aware
// wallet view, and construction of partially signed transaction envelopes
// for downstream signing.
//
// The planner never touches a signing key for commit inputs, never
// broadcasts, and never talks to a chain index directly; it calls the
// Collaborator interface for everything it needs to know about the wallet
// and the chain.
package planner

import (
	"fmt"
	"math"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// AddressType is the address encoding the planner admits.
type AddressType string

const (
	AddressP2TR   AddressType = "p2tr"
	AddressP2WPKH AddressType = "p2wpkh"
)

// Address is a decoded wallet address with a known type tag. The planner
// only admits P2TR and P2WPKH; anything else is rejected at construction.
type Address struct {
	Encoded string
	Type    AddressType
	decoded btcutil.Address
	script  []byte
}

// Script returns the output script (scriptPubKey) for this address.
func (a Address) Script() []byte {
	return a.script
}

// Decoded returns the underlying btcutil.Address.
func (a Address) Decoded() btcutil.Address {
	return a.decoded
}

// ParseAddress decodes addr for the given network and classifies its type,
// rejecting anything other than P2TR or P2WPKH.
func ParseAddress(addr string, params *chaincfg.Params) (Address, error) {
	decoded, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, addr, err)
	}
	if !decoded.IsForNet(params) {
		return Address{}, fmt.Errorf("%w: %s is not valid for this network", ErrInvalidAddress, addr)
	}

	var typ AddressType
	switch decoded.(type) {
	case *btcutil.AddressTaproot:
		typ = AddressP2TR
	case *btcutil.AddressWitnessPubKeyHash:
		typ = AddressP2WPKH
	default:
		return Address{}, fmt.Errorf("%w: %s is neither P2TR nor P2WPKH", ErrInvalidAddress, addr)
	}

	script, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, addr, err)
	}

	return Address{Encoded: addr, Type: typ, decoded: decoded, script: script}, nil
}

// OutPoint identifies a transaction output by (txid, vout).
type OutPoint struct {
	Txid chainhash.Hash
	Vout uint32
}

func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.Txid.String(), o.Vout)
}

func (o OutPoint) wire() wire.OutPoint {
	return wire.OutPoint{Hash: o.Txid, Index: o.Vout}
}

// Satpoint identifies a specific satoshi within an output.
type Satpoint struct {
	Outpoint OutPoint
	Offset   uint64
}

func (s Satpoint) String() string {
	return fmt.Sprintf("%s:%d", s.Outpoint.String(), s.Offset)
}

// InscriptionID identifies an inscription by its reveal transaction id and
// an index within that transaction (conventionally 0).
type InscriptionID struct {
	Txid  chainhash.Hash
	Index uint32
}

func (id InscriptionID) String() string {
	return fmt.Sprintf("%si%d", id.Txid.String(), id.Index)
}

// MarshalJSON renders an InscriptionID the same "{txid}i{index}" way it
// prints, matching the wire convention consumers of the mint envelope
// expect rather than a two-field object.
func (id InscriptionID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(id.String())), nil
}

// UtxoSet maps an OutPoint to its value in satoshis. Iteration order is not
// meaningful; callers that need determinism (C3) sort explicitly.
type UtxoSet map[OutPoint]uint64

// InscriptionIndex maps a Satpoint to the InscriptionID occupying it. At
// most one inscription occupies a given satpoint; the first inscription on
// a UTXO occupies offset 0.
type InscriptionIndex map[Satpoint]InscriptionID

// InscribedOutpoints returns the set of outpoints that carry at least one
// inscription, regardless of offset.
func (idx InscriptionIndex) InscribedOutpoints() map[OutPoint]struct{} {
	out := make(map[OutPoint]struct{}, len(idx))
	for sp := range idx {
		out[sp.Outpoint] = struct{}{}
	}
	return out
}

// Inscription is the payload to be revealed: content bytes plus the
// content-type string supplied by the caller, used as given.
type Inscription struct {
	Content     []byte
	ContentType string
	Metadata    []byte
}

// FeeRate is sats/vB. Must be finite and non-negative.
type FeeRate float64

// Validate rejects non-finite or negative fee rates.
func (r FeeRate) Validate() error {
	f := float64(r)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: fee rate is not finite", ErrBadRequest)
	}
	if f < 0 {
		return fmt.Errorf("%w: fee rate must be non-negative", ErrBadRequest)
	}
	return nil
}

// Fee returns ceil(vsize * rate) sats.
func (r FeeRate) Fee(vsize int64) uint64 {
	return uint64(math.Ceil(float64(vsize) * float64(r)))
}

// CommitPlan is the unsigned commit transaction plus everything a caller
// needs to sign it and size the reveal chain against it.
type CommitPlan struct {
	Tx              *wire.MsgTx
	WitnessUtxos    map[OutPoint]*wire.TxOut
	CommitVout      uint32
	CommitAddress   Address
	PerRevealFees   []uint64
}

// RevealChain is the ordered sequence of signed reveal transactions.
type RevealChain struct {
	Txs            []*wire.MsgTx
	InscriptionIDs []InscriptionID
}

// ResultEnvelope is the planner's output for a mint request.
type ResultEnvelope struct {
	CommitHex     string          `json:"commit"`
	CommitCustom  []string        `json:"commit_custom"`
	RevealHex     []string        `json:"reveal"`
	InscriptionID []InscriptionID `json:"inscription"`
	ServiceFee    uint64          `json:"service_fee"`
	SatpointFee   uint64          `json:"satpoint_fee"`
	NetworkFee    uint64          `json:"network_fee"`
}
