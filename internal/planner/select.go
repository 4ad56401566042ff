package planner

import (
	"fmt"
	"sort"
)

// SelectionInput is everything C3 needs to pick cardinal inputs for a
// target value.
type SelectionInput struct {
	// Utxos is the full wallet view at the chosen address (or addresses).
	Utxos UtxoSet
	// Inscribed marks outpoints that must never be selected: they carry an
	// inscription and spending them would burn or relocate it silently.
	Inscribed map[OutPoint]struct{}
	// Exclude additionally excludes specific outpoints already reserved by
	// an in-flight plan (e.g. the anchor satpoint of a transfer).
	Exclude map[OutPoint]struct{}
	// FeeRate prices each candidate input/output during accumulation.
	FeeRate FeeRate
	// ChangeAddress receives any change output above the change dust
	// threshold; below it, the remainder is folded into the fee.
	ChangeAddress Address
}

// Selection is the outcome of a cardinal UTXO search: the chosen inputs,
// their total value, and the fee charged against them at FeeRate.
type Selection struct {
	Inputs []OutPoint
	Total  uint64
	Fee    uint64
}

const (
	// bytesPerP2WPKHInput approximates a spent P2WPKH input's vsize
	// contribution (outpoint + sequence + witness), used to re-estimate fee
	// as inputs accumulate.
	bytesPerP2WPKHInput int64 = 68
	// bytesPerP2TRInput approximates a key-path-spent P2TR input's vsize
	// contribution.
	bytesPerP2TRInput int64 = 58
	// bytesOverhead covers version, locktime, segwit marker/flag, and a
	// single change output.
	bytesOverhead int64 = 51
)

func inputVsize(addrType AddressType) int64 {
	if addrType == AddressP2TR {
		return bytesPerP2TRInput
	}
	return bytesPerP2WPKHInput
}

// SelectCardinalUtxos performs a largest-first greedy accumulation against
// target, re-estimating the fee after each input is added so the final
// selection covers target plus its own fee (§4.3).
//
// Mirrors the largest-first accumulate-then-refit shape used elsewhere in
// this codebase for fee-aware input selection, generalized with an
// inscription exclusion set so inscribed sats are never swept up as plain
// cardinal funding.
func SelectCardinalUtxos(in SelectionInput, target uint64, changeAddrType AddressType) (Selection, error) {
	if err := in.FeeRate.Validate(); err != nil {
		return Selection{}, err
	}

	candidates := make([]OutPoint, 0, len(in.Utxos))
	for op := range in.Utxos {
		if _, inscribed := in.Inscribed[op]; inscribed {
			continue
		}
		if _, excluded := in.Exclude[op]; excluded {
			continue
		}
		candidates = append(candidates, op)
	}
	if len(candidates) == 0 {
		return Selection{}, ErrNoCardinalUtxos
	}

	sort.Slice(candidates, func(i, j int) bool {
		vi, vj := in.Utxos[candidates[i]], in.Utxos[candidates[j]]
		if vi != vj {
			return vi > vj
		}
		return candidates[i].String() < candidates[j].String()
	})

	var chosen []OutPoint
	var total uint64
	for _, op := range candidates {
		chosen = append(chosen, op)
		total += in.Utxos[op]

		vsize := bytesOverhead + inputVsize(changeAddrType)*int64(len(chosen))
		fee := in.FeeRate.Fee(vsize)
		if total >= target+fee {
			return Selection{Inputs: chosen, Total: total, Fee: fee}, nil
		}
	}

	return Selection{}, fmt.Errorf("%w: have %d, need %d plus fee", ErrInsufficient, total, target)
}
