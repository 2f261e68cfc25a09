// Package safety implements the Safety Gate: danger-mode state machine,
// per-target confirmation tokens, and preflight checks. None of it is
// platform-specific; it consumes only plain values and a BatteryProvider
// (by default the /sys/class/power_supply reader) for the power-status
// preflight check.
package safety

import (
	"strings"
	"sync"
	"time"

	"diskforge/internal/model"
)

// DangerMode is the Safety Gate's arm-to-destruct state.
type DangerMode string

const (
	DangerModeDisabled     DangerMode = "DISABLED"
	DangerModeEnabled      DangerMode = "ENABLED"
	DangerModeAcknowledged DangerMode = "ACKNOWLEDGED"
)

const ackPhrase = "i understand the risks"

// DefaultConfirmationTimeout is used when Gate is constructed with zero.
const DefaultConfirmationTimeout = 300 * time.Second

// Gate is the Safety Gate. All reads (including the lazy auto-expiry check)
// and writes take mu, matching the mutex-guarded-state pattern used
// throughout the rest of the core.
type Gate struct {
	mu                  sync.Mutex
	mode                DangerMode
	enabledAt           time.Time
	confirmationTimeout time.Duration
	confirmedOps        map[string]struct{}

	checker *PreflightChecker
}

// NewGate returns a Gate in DISABLED state with the given confirmation
// timeout (DefaultConfirmationTimeout if zero) and the standard preflight
// checks registered.
func NewGate(confirmationTimeout time.Duration) *Gate {
	if confirmationTimeout <= 0 {
		confirmationTimeout = DefaultConfirmationTimeout
	}
	return &Gate{
		mode:                DangerModeDisabled,
		confirmationTimeout: confirmationTimeout,
		confirmedOps:        make(map[string]struct{}),
		checker:             NewStandardPreflightChecker(),
	}
}

// Mode returns the current DangerMode, evaluating auto-expiry lazily: a read
// more than confirmationTimeout after arming silently reverts to DISABLED.
func (g *Gate) Mode() DangerMode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.modeLocked()
}

func (g *Gate) modeLocked() DangerMode {
	if g.mode != DangerModeDisabled && time.Since(g.enabledAt) > g.confirmationTimeout {
		g.mode = DangerModeDisabled
		g.confirmedOps = make(map[string]struct{})
	}
	return g.mode
}

// EnableDangerMode arms danger mode if ack is, after trimming whitespace and
// folding case, exactly the required acknowledgment phrase.
func (g *Gate) EnableDangerMode(ack string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if strings.ToLower(strings.TrimSpace(ack)) != ackPhrase {
		return false
	}
	g.mode = DangerModeEnabled
	g.enabledAt = time.Now()
	g.confirmedOps = make(map[string]struct{})
	return true
}

// DisableDangerMode returns to DISABLED unconditionally.
func (g *Gate) DisableDangerMode() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mode = DangerModeDisabled
	g.confirmedOps = make(map[string]struct{})
}

// IsOperationAllowed reports whether an operation of the given type may
// proceed under the current DangerMode, and if not, a message naming the
// operation and how to arm danger mode.
func (g *Gate) IsOperationAllowed(op model.OperationType) (bool, string) {
	if op == model.OperationReadOnly {
		return true, ""
	}
	if g.Mode() == DangerModeDisabled {
		return false, "Danger Mode is required for " + string(op) + " operations; enable it first with the exact phrase \"I understand the risks\""
	}
	return true, ""
}

// GenerateConfirmationString builds the per-target token the operator must
// type to authorize a destructive operation against target.
func GenerateConfirmationString(target string) string {
	return "DESTROY-" + sanitizeToken(target)
}

// VerifyConfirmation checks an operator-supplied token against target's
// expected token, and on success records opID as confirmed.
func (g *Gate) VerifyConfirmation(target, supplied, opID string) (bool, string) {
	want := GenerateConfirmationString(target)
	if strings.TrimSpace(supplied) != want {
		return false, "Confirmation token does not match; expected " + want
	}
	g.mu.Lock()
	g.confirmedOps[opID] = struct{}{}
	g.mu.Unlock()
	return true, "Confirmation verified"
}

// IsOperationConfirmed reports whether opID has a recorded confirmation.
func (g *Gate) IsOperationConfirmed(opID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.confirmedOps[opID]
	return ok
}

// Checker exposes the registered PreflightChecker so callers can run checks
// or add custom ones.
func (g *Gate) Checker() *PreflightChecker {
	return g.checker
}

var nonTokenChars = func() map[rune]bool {
	allowed := map[rune]bool{'/': true, '_': true, '-': true}
	return allowed
}()

func sanitizeToken(target string) string {
	var b strings.Builder
	for _, r := range target {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case nonTokenChars[r]:
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}
