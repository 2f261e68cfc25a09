package safety

import (
	"fmt"
)

// Severity is how seriously a failed PreflightCheck should be taken.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// PreflightCheck is one check's verdict.
type PreflightCheck struct {
	Name     string   `json:"name"`
	Passed   bool     `json:"passed"`
	Severity Severity `json:"severity,omitempty"`
	Message  string   `json:"message"`
}

// PreflightContext is the ambient information a check function may consult.
// Only the fields a given check needs are populated by the caller.
type PreflightContext struct {
	SourceSizeBytes uint64
	TargetSizeBytes uint64
	TargetPath      string
	MountedPaths    map[string]bool
}

// CheckFunc evaluates one preflight check against a context.
type CheckFunc func(ctx PreflightContext) PreflightCheck

// PreflightReport is the aggregate result of running every registered check.
type PreflightReport struct {
	Checks []PreflightCheck `json:"checks"`
}

// AllPassed reports whether every check passed.
func (r PreflightReport) AllPassed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// HasErrors reports whether any failed check has error severity.
func (r PreflightReport) HasErrors() bool {
	for _, c := range r.Checks {
		if !c.Passed && c.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any failed check has warning severity.
func (r PreflightReport) HasWarnings() bool {
	for _, c := range r.Checks {
		if !c.Passed && c.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// Summary renders a one-line-per-check human-readable report.
func (r PreflightReport) Summary() string {
	out := ""
	for _, c := range r.Checks {
		status := "PASS"
		if !c.Passed {
			status = string(c.Severity)
		}
		out += fmt.Sprintf("[%s] %s: %s\n", status, c.Name, c.Message)
	}
	return out
}

// PreflightChecker is a declarative registry of named checks.
type PreflightChecker struct {
	checks []namedCheck
}

type namedCheck struct {
	name string
	fn   CheckFunc
}

// NewPreflightChecker returns an empty checker.
func NewPreflightChecker() *PreflightChecker {
	return &PreflightChecker{}
}

// AddCheck registers a named check function.
func (c *PreflightChecker) AddCheck(name string, fn CheckFunc) {
	c.checks = append(c.checks, namedCheck{name: name, fn: fn})
}

// RunChecks evaluates every registered check against ctx. A check that
// panics is recovered and reported as a failed error-severity check rather
// than propagating, matching the declarative registry's "never fail hard"
// contract.
func (c *PreflightChecker) RunChecks(ctx PreflightContext) PreflightReport {
	report := PreflightReport{Checks: make([]PreflightCheck, 0, len(c.checks))}
	for _, nc := range c.checks {
		report.Checks = append(report.Checks, runOne(nc, ctx))
	}
	return report
}

func runOne(nc namedCheck, ctx PreflightContext) (result PreflightCheck) {
	defer func() {
		if r := recover(); r != nil {
			result = PreflightCheck{
				Name:     nc.name,
				Passed:   false,
				Severity: SeverityError,
				Message:  fmt.Sprintf("Check failed: %v", r),
			}
		}
	}()
	return nc.fn(ctx)
}

// NewStandardPreflightChecker returns a checker with the three required
// built-ins registered: power status, target size, mount status.
func NewStandardPreflightChecker() *PreflightChecker {
	c := NewPreflightChecker()
	c.AddCheck("power_status", CheckPowerStatus)
	c.AddCheck("target_size", CheckTargetSize)
	c.AddCheck("mount_status", CheckNotMounted)
	return c
}

// BatteryProvider reports whether the host is running on battery and, if
// so, its remaining charge. Implementations that find no battery at all
// should return present=false.
type BatteryProvider interface {
	BatteryStatus() (present bool, onBattery bool, percent float64, err error)
}

// batteryProvider is the provider CheckPowerStatus consults; swappable in
// tests. Defaults to the sysfs-backed reader on Linux.
var batteryProvider BatteryProvider = sysfsBatteryProvider{}

// SetBatteryProvider overrides the battery source, for tests and non-Linux
// backends that supply their own.
func SetBatteryProvider(p BatteryProvider) {
	if p == nil {
		p = sysfsBatteryProvider{}
	}
	batteryProvider = p
}

// CheckPowerStatus fails with error severity when the host is on battery
// below 50%, warns when on battery at or above 50%, and passes when the host
// is plugged in or has no battery at all.
func CheckPowerStatus(_ PreflightContext) PreflightCheck {
	present, onBattery, percent, err := batteryProvider.BatteryStatus()
	if err != nil || !present || !onBattery {
		return PreflightCheck{Name: "power_status", Passed: true, Message: "No battery present or on AC power"}
	}
	if percent < 50 {
		return PreflightCheck{
			Name: "power_status", Passed: false, Severity: SeverityError,
			Message: fmt.Sprintf("On battery at %.0f%%, below the 50%% safety threshold", percent),
		}
	}
	return PreflightCheck{
		Name: "power_status", Passed: false, Severity: SeverityWarning,
		Message: fmt.Sprintf("On battery at %.0f%%", percent),
	}
}

// CheckTargetSize fails with error severity when the target is zero-sized or
// smaller than the source.
func CheckTargetSize(ctx PreflightContext) PreflightCheck {
	if ctx.TargetSizeBytes == 0 && ctx.SourceSizeBytes == 0 {
		return PreflightCheck{Name: "target_size", Passed: true, Message: "No size constraint to check"}
	}
	if ctx.TargetSizeBytes == 0 || ctx.TargetSizeBytes < ctx.SourceSizeBytes {
		return PreflightCheck{
			Name: "target_size", Passed: false, Severity: SeverityError,
			Message: fmt.Sprintf("target size %d is smaller than source size %d", ctx.TargetSizeBytes, ctx.SourceSizeBytes),
		}
	}
	return PreflightCheck{Name: "target_size", Passed: true, Message: "Target is large enough"}
}

// CheckNotMounted fails with error severity when the target path is in the
// set of currently mounted paths.
func CheckNotMounted(ctx PreflightContext) PreflightCheck {
	if ctx.TargetPath != "" && ctx.MountedPaths[ctx.TargetPath] {
		return PreflightCheck{
			Name: "mount_status", Passed: false, Severity: SeverityError,
			Message: fmt.Sprintf("%s is currently mounted", ctx.TargetPath),
		}
	}
	return PreflightCheck{Name: "mount_status", Passed: true, Message: "Target is not mounted"}
}
