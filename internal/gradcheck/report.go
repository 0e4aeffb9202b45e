package gradcheck

import (
	"math/rand"
	"time"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Result is the outcome of checking one operator.
type Result struct {
	Operator string
	Err      error // nil when both checks passed
	Duration time.Duration
}

// Passed reports whether the operator passed both checks.
func (r Result) Passed() bool { return r.Err == nil }

// Report collects the per-operator results of a run.
type Report struct {
	Config  Config
	Results []Result
}

// Passed reports whether every operator passed.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed() {
			return false
		}
	}
	return true
}

// Failed returns the results that did not pass.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Passed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err returns the first failure, or nil.
func (r *Report) Err() error {
	for _, res := range r.Results {
		if res.Err != nil {
			return res.Err
		}
	}
	return nil
}

// Run checks every selected operator and collects the results. It returns an
// error only for an invalid configuration; operator failures are in the report.
func Run(cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	klog.V(1).Infof("gradcheck: seed=%d T=%d C=%d atol=%g rtol=%g step=%g",
		cfg.Seed, cfg.Batch, cfg.Features, cfg.Atol, cfg.Rtol, cfg.Step)

	// Upstream gradients come from a stream separate from the inputs.
	rng := rand.New(rand.NewSource(cfg.Seed + 1))

	report := &Report{Config: cfg}
	for _, c := range Cases(cfg) {
		start := time.Now()
		err := RunCase(c, cfg, rng)
		res := Result{Operator: c.Name, Err: err, Duration: time.Since(start)}
		if err != nil {
			klog.Errorf("gradcheck: %s failed: %v", c.Name, err)
		} else {
			klog.V(1).Infof("gradcheck: %s passed in %s", c.Name, res.Duration)
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// RunCase runs the forward check and then the gradient check for one case.
// A panic inside the operator is reported as an error, whatever its value.
func RunCase(c Case, cfg Config, rng *rand.Rand) error {
	var checkErr error
	exception := exceptions.TryCatch[any](func() {
		if checkErr = CheckForwardValues(c, cfg); checkErr != nil {
			return
		}
		checkErr = CheckGradients(c, cfg, rng)
	})
	if exception != nil {
		panicErr, ok := exception.(error)
		if !ok {
			panicErr = errors.Errorf("%v", exception)
		}
		return errors.WithMessagef(panicErr, "%s panicked", c.Name)
	}
	return checkErr
}
