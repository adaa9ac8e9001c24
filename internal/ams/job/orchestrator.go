package job

// OrchestratorJob is the singleton coordination job: scheduled once inside
// the root allocation, it schedules the ML and staging jobs through the
// scheduler endpoint it is given. Fixed shape, no dynamic behavior beyond
// the base description.
type OrchestratorJob struct {
	Job
}

// NewOrchestratorJob builds the orchestrator description. fluxURI is the
// scheduler endpoint the orchestrator submits into, rmqConfigPath the
// broker credentials file it hands to the jobs it spawns. The base
// environment is supplied by the driver.
func NewOrchestratorJob(fluxURI, rmqConfigPath string, environ map[string]string) (*OrchestratorJob, error) {
	res := Resources{
		Nodes:        1,
		TasksPerNode: 1,
		CoresPerTask: 1,
		Exclusive:    false,
		GPUsPerTask:  0,
	}

	base, err := New(Params{
		Name:        "AMSOrchestrator",
		Executable:  "AMSOrchestrator",
		Environment: environ,
		Resources:   &res,
		Stdout:      "AMSOrchestrator-log.out",
		Stderr:      "AMSOrchestrator-log.err",
		CLIKwargs: []Flag{
			{Flag: "--ml-uri", Value: fluxURI},
			{Flag: "--ams-rmq-config", Value: rmqConfigPath},
		},
	})
	if err != nil {
		return nil, err
	}
	return &OrchestratorJob{Job: *base}, nil
}
