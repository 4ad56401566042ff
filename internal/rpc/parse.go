package rpc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/ordforge/inscribed/internal/planner"
)

// parseOutpointString parses "txid:vout".
func parseOutpointString(s string) (planner.OutPoint, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return planner.OutPoint{}, fmt.Errorf("%w: malformed outpoint %q", planner.ErrBadRequest, s)
	}
	h, err := chainhash.NewHashFromStr(parts[0])
	if err != nil {
		return planner.OutPoint{}, fmt.Errorf("%w: %v", planner.ErrBadRequest, err)
	}
	vout, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return planner.OutPoint{}, fmt.Errorf("%w: %v", planner.ErrBadRequest, err)
	}
	return planner.OutPoint{Txid: *h, Vout: uint32(vout)}, nil
}

// parseSatpoint parses "txid:vout:offset".
func parseSatpoint(s string) (planner.Satpoint, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return planner.Satpoint{}, fmt.Errorf("%w: malformed satpoint %q", planner.ErrBadRequest, s)
	}
	op, err := parseOutpointString(parts[0] + ":" + parts[1])
	if err != nil {
		return planner.Satpoint{}, err
	}
	offset, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return planner.Satpoint{}, fmt.Errorf("%w: %v", planner.ErrBadRequest, err)
	}
	return planner.Satpoint{Outpoint: op, Offset: offset}, nil
}

// parseInscriptionID parses "txidiN".
func parseInscriptionID(s string) (planner.InscriptionID, error) {
	sep := strings.LastIndex(s, "i")
	if sep < 0 {
		return planner.InscriptionID{}, fmt.Errorf("%w: malformed inscription id %q", planner.ErrBadRequest, s)
	}
	h, err := chainhash.NewHashFromStr(s[:sep])
	if err != nil {
		return planner.InscriptionID{}, fmt.Errorf("%w: %v", planner.ErrBadRequest, err)
	}
	index, err := strconv.ParseUint(s[sep+1:], 10, 32)
	if err != nil {
		return planner.InscriptionID{}, fmt.Errorf("%w: %v", planner.ErrBadRequest, err)
	}
	return planner.InscriptionID{Txid: *h, Index: uint32(index)}, nil
}
