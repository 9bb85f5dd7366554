package stage

// Health is one pipeline stage's readiness report, surfaced by the status
// command and the workflow status summary.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy reports a stage that is ready to process jobs.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy reports a stage that cannot run, with the reason in Detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
