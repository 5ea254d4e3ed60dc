package state

import (
	"encoding/json"

	"github.com/cometbft/cometbft/crypto/ed25519"
)

// StateHeader carries the per-height chain context plus the
// authorization gate: the single admin account index and the pause
// flag consulted before every non-admin mutation.
type StateHeader struct {
	ChainId    string `json:"chainId"`
	Height     uint64 `json:"height"`
	Hash       []byte `json:"hash"`
	RootHash   []byte `json:"rootHash"`
	AccountIdx uint64 `json:"accountIdx"`
	Admin      uint64 `json:"admin"`
	Paused     bool   `json:"paused"`
}

func (h *StateHeader) Clone() *StateHeader {
	n := *h
	if h.Hash != nil {
		n.Hash = make([]byte, len(h.Hash))
		copy(n.Hash, h.Hash)
	}
	if h.RootHash != nil {
		n.RootHash = make([]byte, len(h.RootHash))
		copy(n.RootHash, h.RootHash)
	}
	return &n
}

// Account is a voter/depositor identity. Stake doubles as registered
// voting power; it only ever grows (there is no withdrawal path).
type Account struct {
	Index  uint64 `json:"index"`
	PubKey []byte `json:"pubKey"`
	Stake  uint64 `json:"stake"`
	Nonce  uint64 `json:"nonce"`
}

func (a *Account) Marshal() ([]byte, error) {
	return json.Marshal(a)
}

func (a *Account) Unmarshal(dat []byte) error {
	return json.Unmarshal(dat, a)
}

func (a *Account) Clone() *Account {
	n := *a
	if a.PubKey != nil {
		n.PubKey = make([]byte, len(a.PubKey))
		copy(n.PubKey, a.PubKey)
	}
	return &n
}

func (a *Account) SetPubKey(pkey []byte) {
	if a.PubKey == nil {
		a.PubKey = make([]byte, len(pkey))
	}
	copy(a.PubKey, pkey)
}

func (a *Account) AddrBytes() []byte {
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.Address()[:]
}

func (a *Account) Address() string {
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.Address().String()
}

func (a *Account) Verify(msg []byte, sigs [][]byte) (succ bool) {
	if len(sigs) != 1 {
		return false
	}
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.VerifySignature(msg, sigs[0])
}
