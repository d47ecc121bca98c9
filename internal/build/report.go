package build

// Outcome classifies the terminal state of one repository build.
type Outcome string

const (
	// OutcomeBuilt means packages were produced and moved to the output dir
	OutcomeBuilt Outcome = "Built"
	// OutcomeSkipped means the repository is not buildable as packaged
	OutcomeSkipped Outcome = "Skipped"
	// OutcomeFailed means a pipeline step errored
	OutcomeFailed Outcome = "Failed"
)

// Result records the terminal state of one repository build.
type Result struct {
	// Repository is the source repository name
	Repository string
	// Outcome is the terminal state
	Outcome Outcome
	// Source is the source package name, when the tree was read
	Source string
	// Version is the changelog version with revision stripped, when read
	Version string
	// Artifacts are the logical package names produced by the build
	Artifacts []string
	// Error carries the failure or skip reason
	Error error
}

func (r *Result) failed(err error) *Result {
	r.Outcome = OutcomeFailed
	r.Error = err
	return r
}

func (r *Result) skipped(err error) *Result {
	r.Outcome = OutcomeSkipped
	r.Error = err
	return r
}

// Report collects per-repository results for one run.
type Report struct {
	Results []Result
	// Aborted is set when the failure policy stopped the run early
	Aborted bool
}

// Built counts repositories that produced packages.
func (r *Report) Built() int { return r.count(OutcomeBuilt) }

// Skipped counts repositories that were not buildable as packaged.
func (r *Report) Skipped() int { return r.count(OutcomeSkipped) }

// Failed counts repositories whose build errored.
func (r *Report) Failed() int { return r.count(OutcomeFailed) }

func (r *Report) count(outcome Outcome) int {
	n := 0
	for _, result := range r.Results {
		if result.Outcome == outcome {
			n++
		}
	}
	return n
}

// ArtifactNames returns the logical package names produced across the run,
// deduplicated in first-seen order. The publisher consumes this list.
func (r *Report) ArtifactNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, result := range r.Results {
		for _, name := range result.Artifacts {
			if seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
