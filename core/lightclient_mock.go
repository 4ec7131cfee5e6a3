package core

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
)

// merkleConsensusState is the consensus state produced by merkleLightClient:
// a single root hash plus the counterparty block timestamp it was taken at.
type merkleConsensusState struct {
	Root      [32]byte  `json:"root"`
	Timestamp Timestamp `json:"timestamp"`
}

// merkleClientState is the (mostly static) client state: the counterparty
// chain id recorded at creation and the latest height the client has been
// updated to.
type merkleClientState struct {
	ChainId      string `json:"chain_id"`
	LatestHeight Height `json:"latest_height"`
}

// merkleProof is the wire shape of a single-leaf inclusion proof: the
// sibling hashes from leaf to root and the leaf's index in the tree.
type merkleProof struct {
	Siblings [][]byte `json:"siblings"`
	Index    uint32   `json:"index"`
}

// merkleHeader is the header format merkleLightClient accepts for an
// update: a new root, its height, and the timestamp the counterparty
// stamped it with. There is no signature to check here — this client
// trusts whatever root it's handed, which is exactly why it is a mock
// and not a client fit for a real deployment.
type merkleHeader struct {
	Root      [32]byte  `json:"root"`
	Height    Height    `json:"height"`
	Timestamp Timestamp `json:"timestamp"`
}

// nonMembershipLeaf is the sentinel leaf value proved present in place of
// a real leaf to demonstrate absence: the tree is built so that any key
// with no committed value hashes, at its canonical index, to this
// constant, i.e. a non-membership proof is "prove this sentinel leaf is
// included at the key's slot," the simplest construction a sparse-Merkle
// client can use.
var nonMembershipLeaf = sha256.Sum256([]byte("ibc-union/non-membership"))

// merkleLightClient is a concrete LightClient backed by a plain SHA-256
// Merkle tree. It exists so the registry and the handshake/packet engines
// above it have a real implementation to exercise in tests.
type merkleLightClient struct{}

// NewMerkleLightClient returns a light-client implementation whose proofs
// are single-leaf SHA-256 Merkle inclusion/exclusion proofs against a
// root carried in the consensus state.
func NewMerkleLightClient() LightClient { return merkleLightClient{} }

func (merkleLightClient) VerifyCreation(_ Address, clientState, consensusState []byte, _ Address) (CreationResult, error) {
	var cs merkleClientState
	if err := json.Unmarshal(clientState, &cs); err != nil {
		return CreationResult{}, err
	}
	var cons merkleConsensusState
	if err := json.Unmarshal(consensusState, &cons); err != nil {
		return CreationResult{}, err
	}
	if cs.ChainId == "" {
		return CreationResult{}, errors.New("empty counterparty chain id")
	}
	return CreationResult{CounterpartyChainId: cs.ChainId}, nil
}

func (merkleLightClient) VerifyMembership(consensusState []byte, key []byte, proof []byte, value Commitment) error {
	var cons merkleConsensusState
	if err := json.Unmarshal(consensusState, &cons); err != nil {
		return err
	}
	var p merkleProof
	if err := json.Unmarshal(proof, &p); err != nil {
		return err
	}
	leaf := leafHash(key, value[:])
	if !verifyMerkleProof(cons.Root[:], leaf, p.Siblings, p.Index) {
		return ErrProofVerificationFailed
	}
	return nil
}

func (merkleLightClient) VerifyNonMembership(consensusState []byte, key []byte, proof []byte) error {
	var cons merkleConsensusState
	if err := json.Unmarshal(consensusState, &cons); err != nil {
		return err
	}
	var p merkleProof
	if err := json.Unmarshal(proof, &p); err != nil {
		return err
	}
	leaf := leafHash(key, nonMembershipLeaf[:])
	if !verifyMerkleProof(cons.Root[:], leaf, p.Siblings, p.Index) {
		return ErrProofVerificationFailed
	}
	return nil
}

func (merkleLightClient) VerifyHeader(_ Address, header []byte, _ Address) (StateUpdate, error) {
	var h merkleHeader
	if err := json.Unmarshal(header, &h); err != nil {
		return StateUpdate{}, err
	}
	cons := merkleConsensusState{Root: h.Root, Timestamp: h.Timestamp}
	consBytes, err := json.Marshal(cons)
	if err != nil {
		return StateUpdate{}, err
	}
	clientState, err := json.Marshal(merkleClientState{LatestHeight: h.Height})
	if err != nil {
		return StateUpdate{}, err
	}
	return StateUpdate{Height: h.Height, ConsensusState: consBytes, ClientState: clientState}, nil
}

func (merkleLightClient) GetTimestamp(consensusState []byte) (Timestamp, error) {
	var cons merkleConsensusState
	if err := json.Unmarshal(consensusState, &cons); err != nil {
		return 0, err
	}
	return cons.Timestamp, nil
}

func (merkleLightClient) GetLatestHeight(clientState []byte) (Height, error) {
	var cs merkleClientState
	if err := json.Unmarshal(clientState, &cs); err != nil {
		return 0, err
	}
	return cs.LatestHeight, nil
}

func (merkleLightClient) GetCounterpartyChainId(clientState []byte) (string, error) {
	var cs merkleClientState
	if err := json.Unmarshal(clientState, &cs); err != nil {
		return "", err
	}
	return cs.ChainId, nil
}

func (merkleLightClient) Status(clientState []byte) (ClientStatus, error) {
	if len(clientState) == 0 {
		return ClientStatusExpired, nil
	}
	return ClientStatusActive, nil
}

// leafHash binds a leaf to the key it claims to be committed at, so a
// proof for one key can't be replayed against another.
func leafHash(key, value []byte) []byte {
	h := sha256.New()
	h.Write(key)
	h.Write(value)
	return h.Sum(nil)
}

// verifyMerkleProof recomputes the path from leaf to root using the
// claimed sibling order at each level.
func verifyMerkleProof(root []byte, leaf []byte, proof [][]byte, index uint32) bool {
	hash := leaf
	for _, p := range proof {
		if index%2 == 0 {
			hash = hashConcat(hash, p)
		} else {
			hash = hashConcat(p, hash)
		}
		index /= 2
	}
	return bytes.Equal(hash, root)
}

// hashConcat computes SHA-256(a || b).
func hashConcat(a, b []byte) []byte {
	h := sha256.New()
	h.Write(a)
	h.Write(b)
	return h.Sum(nil)
}
