package planner

import (
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// ordEnvelopeTag identifies the ordinal inscription envelope convention.
var ordEnvelopeTag = []byte("ord")

const maxScriptElementSize = 520

// RevealCrypto holds the ephemeral per-inscription key material and derived
// taproot commitment needed to build and later sign a reveal transaction.
// The private key never leaves the planner invocation that created it.
type RevealCrypto struct {
	PrivateKey    *btcec.PrivateKey
	InternalKey   *btcec.PublicKey
	RevealScript  []byte
	ControlBlock  []byte
	MerkleRoot    [32]byte
	OutputKey     *btcec.PublicKey
	CommitAddress Address
}

// BuildRevealCrypto generates a fresh ephemeral keypair, builds the taproot
// leaf script for insc, and derives the tweaked commit address under
// network.
func BuildRevealCrypto(insc Inscription, network *chaincfg.Params) (*RevealCrypto, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate ephemeral keypair: %w", err)
	}
	internalKey := schnorrInternalKey(priv.PubKey())

	revealScript, err := buildInscriptionEnvelope(internalKey, insc)
	if err != nil {
		return nil, err
	}

	leaf := txscript.NewBaseTapLeaf(revealScript)
	tree := txscript.AssembleTaprootScriptTree(leaf)
	merkleRoot := tree.RootNode.TapHash()
	outputKey := txscript.ComputeTaprootOutputKey(internalKey, merkleRoot[:])

	proof := tree.LeafMerkleProofs[0]
	controlBlock := proof.ToControlBlock(internalKey)
	controlBlockBytes, err := controlBlock.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize control block: %w", err)
	}

	commitAddr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), network)
	if err != nil {
		return nil, fmt.Errorf("derive commit address: %w", err)
	}
	commitScript, err := txscript.PayToAddrScript(commitAddr)
	if err != nil {
		return nil, err
	}

	return &RevealCrypto{
		PrivateKey:   priv,
		InternalKey:  internalKey,
		RevealScript: revealScript,
		ControlBlock: controlBlockBytes,
		MerkleRoot:   merkleRoot,
		OutputKey:    outputKey,
		CommitAddress: Address{
			Encoded: commitAddr.EncodeAddress(),
			Type:    AddressP2TR,
			decoded: commitAddr,
			script:  commitScript,
		},
	}, nil
}

// VerifyCommitKeyClosure recomputes Q' from the ephemeral key's tweak with
// the merkle root and asserts it equals the output key actually committed to.
func (rc *RevealCrypto) VerifyCommitKeyClosure() error {
	recomputed := txscript.ComputeTaprootOutputKey(rc.InternalKey, rc.MerkleRoot[:])
	if !recomputed.IsEqual(rc.OutputKey) {
		return fmt.Errorf("commit key closure failed: recomputed output key does not match")
	}
	return nil
}

func schnorrInternalKey(pub *btcec.PublicKey) *btcec.PublicKey {
	// x-only keys are already what ComputeTaprootOutputKey/TapLeaf expect;
	// btcec public keys carry the even-y representative implicitly via
	// schnorr.SerializePubKey, so the same *btcec.PublicKey is reused as
	// the internal key.
	return pub
}

// buildInscriptionEnvelope constructs:
//
//	<internalKey> OP_CHECKSIG
//	OP_FALSE OP_IF "ord" 1 <content_type> 0 <content...> OP_ENDIF
//
// pushed via the minimal-push discipline (txscript.ScriptBuilder).
func buildInscriptionEnvelope(internalKey *btcec.PublicKey, insc Inscription) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddData(schnorr.SerializePubKey(internalKey))
	builder.AddOp(txscript.OP_CHECKSIG)

	builder.AddOp(txscript.OP_FALSE)
	builder.AddOp(txscript.OP_IF)
	builder.AddData(ordEnvelopeTag)
	builder.AddOp(txscript.OP_DATA_1)
	builder.AddOp(txscript.OP_DATA_1)
	builder.AddData([]byte(insc.ContentType))
	builder.AddOp(txscript.OP_0)
	for _, chunk := range chunkBytes(insc.Content, maxScriptElementSize) {
		builder.AddFullData(chunk)
	}
	if len(insc.Metadata) > 0 {
		builder.AddOp(txscript.OP_DATA_1)
		builder.AddOp(txscript.OP_DATA_5) // metadata tag byte 0x05, per ord's field-tag convention
		for _, chunk := range chunkBytes(insc.Metadata, maxScriptElementSize) {
			builder.AddFullData(chunk)
		}
	}
	builder.AddOp(txscript.OP_ENDIF)

	return builder.Script()
}

func chunkBytes(b []byte, size int) [][]byte {
	if len(b) == 0 {
		return [][]byte{{}}
	}
	var chunks [][]byte
	for len(b) > 0 {
		n := size
		if n > len(b) {
			n = len(b)
		}
		chunks = append(chunks, b[:n])
		b = b[n:]
	}
	return chunks
}

// randomBytes returns n bytes read from crypto/rand. No code in this
// package, tests included, calls it at present.
func randomBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}
