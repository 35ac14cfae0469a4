package resolve

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/google/uuid"
)

const namePrefix = "gitlab-ci-runner"

// GenerateName derives a deployment-unique runner group name from the
// current time plus a 48-bit random suffix. Collision resistance across
// concurrent deployments comes from the width of the suffix, not from
// any coordination, so this is safe to call from independent
// resolutions without locking.
func GenerateName(clock Clock, entropy io.Reader) string {
	if entropy == nil {
		entropy = rand.Reader
	}
	id, err := uuid.NewRandomFromReader(entropy)
	if err != nil {
		id = uuid.New()
	}
	suffix := hex.EncodeToString(id[:6])
	return fmt.Sprintf("%s-%s-%s", namePrefix, clock.Now().UTC().Format("20060102150405"), suffix)
}
