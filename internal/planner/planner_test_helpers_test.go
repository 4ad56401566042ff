package planner

import "github.com/btcsuite/btcd/chaincfg"

func mainNetParams() *chaincfg.Params {
	return &chaincfg.MainNetParams
}

func testNetParams() *chaincfg.Params {
	return &chaincfg.TestNet3Params
}
