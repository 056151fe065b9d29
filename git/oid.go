package git

import (
	"encoding/hex"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// OIDSize is the length in bytes of an object identifier.
const OIDSize = 20

// OID identifies a commit or other object by its content hash. It is a
// comparable value; two OIDs are equal when their bytes are equal.
type OID [OIDSize]byte

// ZeroOID is the all-zero identifier, used where an object is absent, such
// as the old side of a newly created reference.
var ZeroOID OID

// ParseOID parses a 40 character hex string.
func ParseOID(s string) (OID, bool) {
	var id OID
	if len(s) != hex.EncodedLen(OIDSize) {
		return id, false
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return ZeroOID, false
	}
	return id, true
}

// String returns the full hex form.
func (id OID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first seven hex characters.
func (id OID) Short() string {
	return id.String()[:7]
}

// IsZero reports whether id is the zero identifier.
func (id OID) IsZero() bool {
	return id == ZeroOID
}

func oidFromHash(h plumbing.Hash) OID {
	return OID(h)
}

func (id OID) hash() plumbing.Hash {
	return plumbing.Hash(id)
}

// Signature is the identity attached to a commit.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

func signatureFromObject(s object.Signature) Signature {
	return Signature{Name: s.Name, Email: s.Email, When: s.When}
}

// PushUpdate describes one reference update negotiated before a push
// uploads any objects. Src is the target the remote currently has, zero for
// a branch the remote does not have yet. Dst is the target being pushed.
type PushUpdate struct {
	SrcRefName string
	DstRefName string
	Src        OID
	Dst        OID
}
