package launcher

// Status values used across Report and StepResult.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Step names, in the order they can appear in a report.
const (
	StepCreateRuntimeDir    = "create-runtime-dir"
	StepDownloadRuntime     = "download-runtime"
	StepRestoreBundle       = "restore-bundle"
	StepExtractRuntime      = "extract-runtime"
	StepCreateManifest      = "create-manifest"
	StepPatchPth            = "patch-pth"
	StepDownloadGetPip      = "download-get-pip"
	StepInstallPip          = "install-pip"
	StepUpgradePip          = "pip-upgrade"
	StepInstallRequirements = "install-requirements"
	StepLaunch              = "launch"
)

// Report is the outcome of one launcher run. State is the state the run
// started in.
type Report struct {
	State       string       `json:"state"`
	Status      string       `json:"status"`
	Steps       []StepResult `json:"steps"`
	Interpreter string       `json:"interpreter,omitempty"`
	PID         int          `json:"pid,omitempty"`
}

// StepResult is the outcome of a single step.
type StepResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (r *Report) add(name, status, msg string) {
	r.Steps = append(r.Steps, StepResult{Name: name, Status: status, Error: msg})
}

// Step returns the result recorded for name.
func (r *Report) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// Failed lists the steps that ended in an error.
func (r *Report) Failed() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if s.Status == StatusError {
			failed = append(failed, s)
		}
	}
	return failed
}

func (r *Report) finish() {
	r.Status = StatusOK
	if len(r.Failed()) > 0 {
		r.Status = StatusError
	}
}
