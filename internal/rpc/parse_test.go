package rpc

import "testing"

const sampleTxid = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func TestParseOutpointString(t *testing.T) {
	op, err := parseOutpointString(sampleTxid + ":3")
	if err != nil {
		t.Fatalf("parseOutpointString() error = %v", err)
	}
	if op.Vout != 3 {
		t.Errorf("Vout = %d, want 3", op.Vout)
	}
	if op.Txid.String() != sampleTxid {
		t.Errorf("Txid = %s, want %s", op.Txid.String(), sampleTxid)
	}
}

func TestParseOutpointStringMalformed(t *testing.T) {
	tests := []string{"", sampleTxid, sampleTxid + ":notanumber", "nothex:0"}
	for _, s := range tests {
		if _, err := parseOutpointString(s); err == nil {
			t.Errorf("parseOutpointString(%q) expected error, got nil", s)
		}
	}
}

func TestParseSatpoint(t *testing.T) {
	sp, err := parseSatpoint(sampleTxid + ":1:500")
	if err != nil {
		t.Fatalf("parseSatpoint() error = %v", err)
	}
	if sp.Outpoint.Vout != 1 || sp.Offset != 500 {
		t.Errorf("parseSatpoint() = %+v, want vout=1 offset=500", sp)
	}
}

func TestParseSatpointMalformed(t *testing.T) {
	if _, err := parseSatpoint(sampleTxid + ":1"); err == nil {
		t.Error("expected error for a satpoint missing its offset component")
	}
}

func TestParseInscriptionID(t *testing.T) {
	id, err := parseInscriptionID(sampleTxid + "i2")
	if err != nil {
		t.Fatalf("parseInscriptionID() error = %v", err)
	}
	if id.Index != 2 {
		t.Errorf("Index = %d, want 2", id.Index)
	}
	if id.Txid.String() != sampleTxid {
		t.Errorf("Txid = %s, want %s", id.Txid.String(), sampleTxid)
	}
}

func TestParseInscriptionIDMalformed(t *testing.T) {
	if _, err := parseInscriptionID(sampleTxid); err == nil {
		t.Error("expected error for an inscription id with no 'i' separator")
	}
}
