package doctor

// Report collects the results of a doctor run.
type Report struct {
	Results []*CheckResult

	// Fixed names the checks whose fix was applied successfully.
	Fixed []string

	// FixErrors maps check names to fixes that failed.
	FixErrors map[string]error
}

// Count returns how many results have the given status.
func (r *Report) Count(status CheckStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// HasErrors reports whether any check ended in StatusError.
func (r *Report) HasErrors() bool {
	return r.Count(StatusError) > 0
}

// Doctor runs a set of checks.
type Doctor struct {
	checks []Check
}

// New creates a Doctor with the given checks.
func New(checks ...Check) *Doctor {
	return &Doctor{checks: checks}
}

// Default returns the standard udicti checks.
func Default() *Doctor {
	return New(NewConfigCheck(), NewRegistryCheck(), NewDirectoryCheck())
}

// Register adds a check.
func (d *Doctor) Register(c Check) {
	d.checks = append(d.checks, c)
}

// Checks returns the registered checks in run order.
func (d *Doctor) Checks() []Check {
	return d.checks
}

// Run runs every check without fixing anything.
func (d *Doctor) Run(ctx *CheckContext) *Report {
	report := &Report{}
	for _, c := range d.checks {
		report.Results = append(report.Results, c.Run(ctx))
	}
	return report
}

// Fix runs every check, applies fixes where a fixable check is not OK, and
// re-runs those checks so the report shows the state after fixing.
func (d *Doctor) Fix(ctx *CheckContext) *Report {
	report := &Report{FixErrors: make(map[string]error)}
	for _, c := range d.checks {
		res := c.Run(ctx)
		if res.Status != StatusOK && c.CanFix() {
			if err := c.Fix(ctx); err != nil {
				report.FixErrors[c.Name()] = err
			} else {
				report.Fixed = append(report.Fixed, c.Name())
				res = c.Run(ctx)
			}
		}
		report.Results = append(report.Results, res)
	}
	return report
}
