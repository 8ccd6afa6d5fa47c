package utils

import (
	"crypto/rand"

	"github.com/google/uuid"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/mr-tron/base58"
)

// didLength is the byte length of the pairwise DIDs we generate. It's the
// same as Indy's unqualified DIDs have, i.e. 16 bytes in base58.
const didLength = 16

// UUID generates new nonce with Go's crypto package, and returns value
// as string.
func UUID() string {
	return uuid.New().String()
}

// NewDID generates a random unqualified pairwise DID.
func NewDID() (did string, err error) {
	defer err2.Handle(&err, "new DID")

	b := make([]byte, didLength)
	try.To1(rand.Read(b))
	return base58.Encode(b), nil
}

// ValidDID tells if the string is a well-formed unqualified DID we can route
// messages to.
func ValidDID(did string) bool {
	b, err := base58.Decode(did)
	return err == nil && len(b) == didLength
}
