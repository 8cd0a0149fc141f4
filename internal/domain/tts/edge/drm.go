package edge

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	trustedClientToken = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"

	// Version string the service expects alongside the rotating token.
	chromiumFullVersion = "130.0.2849.68"
	secMSGECVersion     = "1-" + chromiumFullVersion

	// Seconds between the Windows epoch (1601-01-01) and the Unix epoch.
	windowsEpochOffsetSec = 11_644_473_600

	// The token rotates on a five minute grid.
	tokenWindowSec = 300

	ticksPerSecond = 10_000_000
)

// secMSGEC derives the rotating Sec-MS-GEC query parameter: the SHA-256 of the
// current Windows file time, floored to the five minute window and expressed
// in 100ns ticks, concatenated with the trusted client token, upper-cased hex.
func secMSGEC(now time.Time) string {
	sec := now.Unix() + windowsEpochOffsetSec
	sec -= sec % tokenWindowSec
	ticks := sec * ticksPerSecond

	sum := sha256.Sum256([]byte(fmt.Sprintf("%d%s", ticks, trustedClientToken)))
	return strings.ToUpper(fmt.Sprintf("%x", sum))
}

// NewRequestID returns the 32 hex character identifier used both as the
// websocket ConnectionId and the per-turn X-RequestId.
func NewRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
