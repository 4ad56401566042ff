package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ordforge/inscribed/internal/planner"
)

// registerHandlers wires up the HTTP method table from §6.
func (s *Server) registerHandlers() {
	s.handlers["mint"] = s.handleMint
	s.handlers["mints"] = s.handleMints
	s.handlers["mintWithPostage"] = s.handleMintWithPostage
	s.handlers["unsafeMintWithPostage"] = s.handleUnsafeMintWithPostage
	s.handlers["mintsWithPostage"] = s.handleMintsWithPostage
	s.handlers["reMint"] = s.handleMint
	s.handlers["reMints"] = s.handleMints
	s.handlers["transfer"] = s.handleTransfer
	s.handlers["transferWithFee"] = s.handleTransferWithFee
	s.handlers["cancel"] = s.handleCancel
	s.handlers["isWhitelist"] = s.handleIsWhitelist
}

// mintParams is the wire shape shared by mint/mints/mintWithPostage/
// mintsWithPostage (§6): one source wallet address, one or more
// inscriptions, one or more destinations, and fee controls.
type mintParams struct {
	Source            string   `json:"source"`
	Destinations      []string `json:"destinations"`
	Content           [][]byte `json:"content"`
	ContentType       []string `json:"content_type"`
	FeeRate           float64  `json:"fee_rate"`
	TargetPostage     uint64   `json:"target_postage"`
	ChangeAddress     string   `json:"change_address"`
	ServiceFeeAddress string   `json:"service_fee_address"`
	NoLimit           bool     `json:"no_limit"`
}

func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing params", planner.ErrBadRequest)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", planner.ErrBadRequest, err)
	}
	return nil
}

func (s *Server) buildMintRequest(p mintParams) (planner.MintRequest, error) {
	if len(p.Content) == 0 || len(p.Content) != len(p.ContentType) {
		return planner.MintRequest{}, fmt.Errorf("%w: content and content_type must be equal-length and non-empty", planner.ErrBadRequest)
	}

	source, err := planner.ParseAddress(p.Source, s.network)
	if err != nil {
		return planner.MintRequest{}, err
	}
	change, err := planner.ParseAddress(p.ChangeAddress, s.network)
	if err != nil {
		return planner.MintRequest{}, err
	}

	var serviceFeeAddr planner.Address
	serviceFeeAddrStr := p.ServiceFeeAddress
	if serviceFeeAddrStr == "" {
		serviceFeeAddrStr = s.fees.ServiceFeeAddress
	}
	if serviceFeeAddrStr != "" {
		serviceFeeAddr, err = planner.ParseAddress(serviceFeeAddrStr, s.network)
		if err != nil {
			return planner.MintRequest{}, err
		}
	}

	destStrs := p.Destinations
	if len(destStrs) == 0 {
		destStrs = []string{p.Source}
	}
	destinations := make([]planner.Address, len(destStrs))
	for i, d := range destStrs {
		destinations[i], err = planner.ParseAddress(d, s.network)
		if err != nil {
			return planner.MintRequest{}, err
		}
	}

	inscriptions := make([]planner.Inscription, len(p.Content))
	for i := range p.Content {
		inscriptions[i] = planner.Inscription{Content: p.Content[i], ContentType: p.ContentType[i]}
	}

	feeRate := planner.FeeRate(p.FeeRate)
	if feeRate == 0 {
		feeRate = planner.FeeRate(s.fees.DefaultFeeRateSatsPerVbyte)
	}

	targetPostage := p.TargetPostage
	if targetPostage == 0 {
		targetPostage = s.fees.TargetPostage
	}

	whitelisted, err := s.collab.IsWhitelisted(context.Background(), source)
	if err != nil {
		whitelisted = false
	}

	return planner.MintRequest{
		Source:            source,
		Destinations:      destinations,
		Inscriptions:      inscriptions,
		ChangeAddress:     change,
		ServiceFeeAddress: serviceFeeAddr,
		FeeRate:           feeRate,
		TargetPostage:     targetPostage,
		ServiceFeePerItem: s.fees.ServiceFeePerItem,
		Whitelisted:       whitelisted,
		NoLimit:           p.NoLimit,
		Network:           s.network,
	}, nil
}

func (s *Server) mintResult(ctx context.Context, req planner.MintRequest) (interface{}, error) {
	_, _, envelope, err := planner.PlanMint(ctx, s.collab, req)
	if err != nil {
		return nil, err
	}
	return envelope, nil
}

func (s *Server) handleMint(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p mintParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if len(p.Content) > 1 {
		return nil, fmt.Errorf("%w: mint accepts exactly one inscription, use mints", planner.ErrBadRequest)
	}
	req, err := s.buildMintRequest(p)
	if err != nil {
		return nil, err
	}
	return s.mintResult(ctx, req)
}

func (s *Server) handleMints(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p mintParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	req, err := s.buildMintRequest(p)
	if err != nil {
		return nil, err
	}
	return s.mintResult(ctx, req)
}

func (s *Server) handleMintWithPostage(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p mintParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if p.TargetPostage != 0 && p.TargetPostage < planner.MinTargetPostage {
		return nil, fmt.Errorf("%w: target_postage below minimum %d", planner.ErrDustOutput, planner.MinTargetPostage)
	}
	req, err := s.buildMintRequest(p)
	if err != nil {
		return nil, err
	}
	return s.mintResult(ctx, req)
}

// handleUnsafeMintWithPostage skips mintWithPostage's rejection of a
// target_postage below planner.MinTargetPostage; PlanMint still raises such
// a value to MinTargetPostage instead of failing the call.
func (s *Server) handleUnsafeMintWithPostage(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p mintParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	req, err := s.buildMintRequest(p)
	if err != nil {
		return nil, err
	}
	if p.TargetPostage != 0 {
		req.TargetPostage = p.TargetPostage // PlanMint normalizes it via NormalizeTargetPostage
	}
	return s.mintResult(ctx, req)
}

func (s *Server) handleMintsWithPostage(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	return s.handleMintWithPostage(ctx, raw)
}

type transferParams struct {
	Source            string   `json:"source"`
	Destination       string   `json:"destination"`
	OutgoingKind       string   `json:"outgoing_kind"`
	Satpoint           string   `json:"satpoint"`
	InscriptionID      string   `json:"inscription_id"`
	Brc20Transfer      bool     `json:"brc20_transfer"`
	Amount             uint64   `json:"amount"`
	Additional         []string `json:"additional"`
	OpReturn           []byte   `json:"op_return"`
	ChangeAddress      string   `json:"change_address"`
	FeeRate            float64  `json:"fee_rate"`
	AdditionalFee      uint64   `json:"additional_fee"`
}

func (s *Server) buildTransferRequest(p transferParams) (planner.TransferRequest, error) {
	source, err := planner.ParseAddress(p.Source, s.network)
	if err != nil {
		return planner.TransferRequest{}, err
	}
	dest, err := planner.ParseAddress(p.Destination, s.network)
	if err != nil {
		return planner.TransferRequest{}, err
	}
	change, err := planner.ParseAddress(p.ChangeAddress, s.network)
	if err != nil {
		return planner.TransferRequest{}, err
	}

	primary, err := parseOutgoing(p.OutgoingKind, p.Satpoint, p.InscriptionID, p.Amount, p.Brc20Transfer)
	if err != nil {
		return planner.TransferRequest{}, err
	}

	additional := make([]planner.Outgoing, len(p.Additional))
	for i, a := range p.Additional {
		switch planner.OutgoingKind(p.OutgoingKind) {
		case planner.OutgoingSatpoint:
			sp, err := parseSatpoint(a)
			if err != nil {
				return planner.TransferRequest{}, err
			}
			additional[i] = planner.Outgoing{Kind: planner.OutgoingSatpoint, Satpoint: sp}
		case planner.OutgoingInscriptionID:
			id, err := parseInscriptionID(a)
			if err != nil {
				return planner.TransferRequest{}, err
			}
			additional[i] = planner.Outgoing{Kind: planner.OutgoingInscriptionID, InscriptionID: id, Brc20Transfer: p.Brc20Transfer}
		case planner.OutgoingAmount:
			amt, err := strconv.ParseUint(a, 10, 64)
			if err != nil {
				return planner.TransferRequest{}, fmt.Errorf("%w: %v", planner.ErrBadRequest, err)
			}
			additional[i] = planner.Outgoing{Kind: planner.OutgoingAmount, Amount: amt}
		}
	}

	feeRate := planner.FeeRate(p.FeeRate)
	if feeRate == 0 {
		feeRate = planner.FeeRate(s.fees.DefaultFeeRateSatsPerVbyte)
	}

	whitelisted, err := s.collab.IsWhitelisted(context.Background(), source)
	if err != nil {
		whitelisted = false
	}

	return planner.TransferRequest{
		Source:            source,
		Destination:       dest,
		Primary:           primary,
		Additional:        additional,
		OpReturn:          p.OpReturn,
		ChangeAddress:     change,
		FeeRate:           feeRate,
		AdditionalFee:     p.AdditionalFee,
		ServiceFeePerItem: s.fees.ServiceFeePerItem,
		Whitelisted:       whitelisted,
	}, nil
}

func parseOutgoing(kind, satpointStr, inscIDStr string, amount uint64, brc20 bool) (planner.Outgoing, error) {
	switch planner.OutgoingKind(kind) {
	case planner.OutgoingSatpoint:
		sp, err := parseSatpoint(satpointStr)
		if err != nil {
			return planner.Outgoing{}, err
		}
		return planner.Outgoing{Kind: planner.OutgoingSatpoint, Satpoint: sp}, nil
	case planner.OutgoingInscriptionID:
		id, err := parseInscriptionID(inscIDStr)
		if err != nil {
			return planner.Outgoing{}, err
		}
		return planner.Outgoing{Kind: planner.OutgoingInscriptionID, InscriptionID: id, Brc20Transfer: brc20}, nil
	case planner.OutgoingAmount:
		return planner.Outgoing{Kind: planner.OutgoingAmount, Amount: amount}, nil
	default:
		return planner.Outgoing{}, fmt.Errorf("%w: unknown outgoing_kind %q", planner.ErrBadRequest, kind)
	}
}

func (s *Server) handleTransfer(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p transferParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	req, err := s.buildTransferRequest(p)
	if err != nil {
		return nil, err
	}
	tx, fee, err := planner.PlanTransfer(ctx, s.collab, req)
	if err != nil {
		return nil, err
	}
	hexTx, err := planner.SerializeTxHex(tx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"tx_hex": hexTx, "network_fee": fee}, nil
}

func (s *Server) handleTransferWithFee(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	return s.handleTransfer(ctx, raw)
}

type cancelParams struct {
	Inputs      []string `json:"inputs"`
	Destination string   `json:"destination"`
	FeeRate     float64  `json:"fee_rate"`
}

func (s *Server) handleCancel(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p cancelParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	dest, err := planner.ParseAddress(p.Destination, s.network)
	if err != nil {
		return nil, err
	}

	inputs := make([]planner.OutPoint, len(p.Inputs))
	for i, in := range p.Inputs {
		op, err := parseOutpointString(in)
		if err != nil {
			return nil, err
		}
		inputs[i] = op
	}

	values, err := s.collab.UnspentOutputsByOutpoints(ctx, inputs)
	if err != nil {
		return nil, err
	}

	feeRate := planner.FeeRate(p.FeeRate)
	if feeRate == 0 {
		feeRate = planner.FeeRate(s.fees.DefaultFeeRateSatsPerVbyte)
	}

	tx, fee, err := planner.PlanCancel(planner.CancelRequest{
		Inputs:      inputs,
		InputValues: values,
		InputTypes:  map[planner.OutPoint]planner.AddressType{},
		Destination: dest,
		FeeRate:     feeRate,
	})
	if err != nil {
		return nil, err
	}
	hexTx, err := planner.SerializeTxHex(tx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"tx_hex": hexTx, "network_fee": fee}, nil
}

type whitelistParams struct {
	Address string `json:"address"`
}

func (s *Server) handleIsWhitelist(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p whitelistParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	addr, err := planner.ParseAddress(p.Address, s.network)
	if err != nil {
		return nil, err
	}
	ok, err := s.collab.IsWhitelisted(ctx, addr)
	if err != nil {
		return nil, err
	}
	return map[string]bool{"whitelisted": ok}, nil
}
