package safety

import (
	"testing"
	"time"

	"diskforge/internal/model"
)

func TestDangerModeDisabledWithoutExactPhrase(t *testing.T) {
	g := NewGate(0)
	if g.EnableDangerMode("sure, go ahead") {
		t.Fatal("expected wrong phrase to be rejected")
	}
	if g.Mode() != DangerModeDisabled {
		t.Fatalf("Mode() = %v, want DISABLED", g.Mode())
	}
}

func TestDangerModeArmingTrimsAndFoldsCase(t *testing.T) {
	g := NewGate(0)
	if !g.EnableDangerMode("  I UNDERSTAND the RISKS  ") {
		t.Fatal("expected exact phrase (trimmed, case-insensitive) to arm danger mode")
	}
	if g.Mode() != DangerModeEnabled {
		t.Fatalf("Mode() = %v, want ENABLED", g.Mode())
	}
}

func TestDangerModeExtraWordFails(t *testing.T) {
	g := NewGate(0)
	if g.EnableDangerMode("I understand the risks completely") {
		t.Fatal("expected an extra word to reject the phrase")
	}
}

func TestDangerModeAutoExpiry(t *testing.T) {
	g := NewGate(10 * time.Millisecond)
	if !g.EnableDangerMode("I understand the risks") {
		t.Fatal("expected arming to succeed")
	}
	time.Sleep(20 * time.Millisecond)
	if got := g.Mode(); got != DangerModeDisabled {
		t.Fatalf("Mode() after expiry = %v, want DISABLED", got)
	}
}

func TestIsOperationAllowed(t *testing.T) {
	g := NewGate(0)

	if ok, _ := g.IsOperationAllowed(model.OperationReadOnly); !ok {
		t.Fatal("READ_ONLY must always be allowed")
	}
	if ok, msg := g.IsOperationAllowed(model.OperationDelete); ok || msg == "" {
		t.Fatalf("DELETE without danger mode should be denied with a message, got ok=%v msg=%q", ok, msg)
	}

	g.EnableDangerMode("I understand the risks")
	if ok, _ := g.IsOperationAllowed(model.OperationDelete); !ok {
		t.Fatal("DELETE with danger mode armed should be allowed")
	}
}

func TestIsOperationAllowedIsPure(t *testing.T) {
	g := NewGate(0)
	ok1, msg1 := g.IsOperationAllowed(model.OperationModify)
	ok2, msg2 := g.IsOperationAllowed(model.OperationModify)
	if ok1 != ok2 || msg1 != msg2 {
		t.Fatal("IsOperationAllowed must be pure for identical inputs")
	}
}

func TestConfirmationTokenRoundTrip(t *testing.T) {
	g := NewGate(0)
	target := "/dev/sdb"
	token := GenerateConfirmationString(target)
	if token != "DESTROY-/DEV/SDB" {
		t.Fatalf("GenerateConfirmationString(%q) = %q, want DESTROY-/DEV/SDB", target, token)
	}

	ok, msg := g.VerifyConfirmation(target, token, "op-1")
	if !ok || msg != "Confirmation verified" {
		t.Fatalf("VerifyConfirmation exact match = (%v, %q)", ok, msg)
	}
	if !g.IsOperationConfirmed("op-1") {
		t.Fatal("expected op-1 to be recorded as confirmed")
	}

	if ok, _ := g.VerifyConfirmation(target, "destroy-/dev/sdb", "op-2"); ok {
		t.Fatal("expected wrong-case token to fail verification")
	}
}

func TestConfirmationTokenUniqueness(t *testing.T) {
	tokenA := GenerateConfirmationString("/dev/sda")
	tokenB := GenerateConfirmationString("/dev/sdb")
	if tokenA == tokenB {
		t.Fatal("distinct targets must not produce the same token")
	}
}

func TestPreflightTargetSizeCheck(t *testing.T) {
	checker := NewPreflightChecker()
	checker.AddCheck("target_size", CheckTargetSize)

	report := checker.RunChecks(PreflightContext{SourceSizeBytes: 100, TargetSizeBytes: 50})
	if report.AllPassed() || !report.HasErrors() {
		t.Fatal("expected target-too-small to fail with error severity")
	}

	report = checker.RunChecks(PreflightContext{SourceSizeBytes: 100, TargetSizeBytes: 100})
	if !report.AllPassed() {
		t.Fatal("equal source/target size must pass (not 'smaller than')")
	}
}

func TestPreflightMountStatusCheck(t *testing.T) {
	checker := NewPreflightChecker()
	checker.AddCheck("mount_status", CheckNotMounted)

	report := checker.RunChecks(PreflightContext{TargetPath: "/mnt/data", MountedPaths: map[string]bool{"/mnt/data": true}})
	if report.AllPassed() {
		t.Fatal("expected mounted target to fail")
	}
}

func TestPreflightCheckerRecoversFromPanic(t *testing.T) {
	checker := NewPreflightChecker()
	checker.AddCheck("boom", func(PreflightContext) PreflightCheck {
		panic("disk on fire")
	})

	report := checker.RunChecks(PreflightContext{})
	if len(report.Checks) != 1 {
		t.Fatalf("expected one check result, got %d", len(report.Checks))
	}
	c := report.Checks[0]
	if c.Passed || c.Severity != SeverityError {
		t.Fatalf("expected a failed error-severity result, got %+v", c)
	}
}
