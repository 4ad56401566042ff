package planner

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// Consensus/policy constants governing dust thresholds and fee estimation.
const (
	// DustP2WPKH is the policy dust value for P2WPKH-equivalent outputs.
	DustP2WPKH uint64 = 545

	// DustP2TR is the policy dust value for P2TR outputs.
	DustP2TR uint64 = 330

	// TargetPostage is the default sat value carried on the inscribed
	// output. Configurable per call; never below MinTargetPostage.
	TargetPostage uint64 = 10_000

	// MinTargetPostage is the floor for an explicit target_postage.
	MinTargetPostage uint64 = DustP2TR

	// MaxStandardTxWeight is the standardness weight limit a reveal
	// transaction must not exceed unless no_limit is set.
	MaxStandardTxWeight int64 = 400_000

	// WitnessScaleFactor is BIP141's weight scaling factor.
	WitnessScaleFactor int64 = 4

	// DefaultServiceFee is the flat per-mint operator fee, waived for
	// whitelisted sources.
	DefaultServiceFee uint64 = 3_000

	// MinServiceFeeOutput is the anti-dust floor applied to the
	// accumulated service-fee output when it is non-zero.
	MinServiceFeeOutput uint64 = 600

	// schnorrSignatureSize is a BIP340 Schnorr signature, used to size
	// taproot key-path and script-path spends.
	schnorrSignatureSize = 64

	// p2wpkhWitnessSize approximates a compressed-pubkey P2WPKH witness
	// stack (signature + pubkey, with stack-item length prefixes).
	p2wpkhWitnessSize = 107
)

// DustThreshold returns the policy dust value for a standard output script.
func DustThreshold(pkScript []byte) uint64 {
	class := txscript.GetScriptClass(pkScript)
	if class == txscript.WitnessV1TaprootTy {
		return DustP2TR
	}
	return DustP2WPKH
}

// Vsize computes the standard BIP141 virtual size of tx in vbytes. tx's
// witnesses must already carry placeholder data of the same byte length as
// the final signed witness (see PlaceholderWitness); fees MUST be
// computed against this post-population size, never the pre-witness size.
func Vsize(tx *wire.MsgTx) int64 {
	baseSize := int64(tx.SerializeSizeStripped())
	totalSize := int64(tx.SerializeSize())
	weight := baseSize*(WitnessScaleFactor-1) + totalSize
	return (weight + WitnessScaleFactor - 1) / WitnessScaleFactor
}

// Weight computes the BIP141 weight of tx (4x vbytes, rounding aside).
func Weight(tx *wire.MsgTx) int64 {
	baseSize := int64(tx.SerializeSizeStripped())
	totalSize := int64(tx.SerializeSize())
	return baseSize*(WitnessScaleFactor-1) + totalSize
}

// PlaceholderWitness builds a dummy witness of the same shape (and thus the
// same serialized byte length) as the final signed witness for addrType,
// so that Vsize/Weight computed against it equals the final transaction's.
func PlaceholderWitness(addrType AddressType) wire.TxWitness {
	switch addrType {
	case AddressP2TR:
		return wire.TxWitness{make([]byte, schnorrSignatureSize)}
	case AddressP2WPKH:
		return wire.TxWitness{
			make([]byte, 72), // DER sig + sighash byte, upper bound
			make([]byte, 33), // compressed pubkey
		}
	default:
		return nil
	}
}

// PlaceholderScriptPathWitness builds the [sig | reveal_script |
// control_block] witness shape used to size a taproot script-path reveal.
func PlaceholderScriptPathWitness(revealScript, controlBlock []byte) wire.TxWitness {
	return wire.TxWitness{
		make([]byte, schnorrSignatureSize),
		revealScript,
		controlBlock,
	}
}

// CheckDust returns ErrDustOutput if any output of tx is below its script's
// dust threshold.
func CheckDust(tx *wire.MsgTx) error {
	for i, out := range tx.TxOut {
		if uint64(out.Value) < DustThreshold(out.PkScript) {
			return fmt.Errorf("%w: output %d value %d below dust threshold", ErrDustOutput, i, out.Value)
		}
	}
	return nil
}

// CheckWeight returns ErrWeightExceeded if tx's weight exceeds
// MaxStandardTxWeight and noLimit is false.
func CheckWeight(tx *wire.MsgTx, noLimit bool) error {
	if noLimit {
		return nil
	}
	w := Weight(tx)
	if w > MaxStandardTxWeight {
		return fmt.Errorf("%w: %d > %d", ErrWeightExceeded, w, MaxStandardTxWeight)
	}
	return nil
}

// NormalizeTargetPostage clamps a caller-supplied target postage to the
// configured minimum, or returns the default when zero.
func NormalizeTargetPostage(requested uint64) uint64 {
	if requested == 0 {
		return TargetPostage
	}
	if requested < MinTargetPostage {
		return MinTargetPostage
	}
	return requested
}
