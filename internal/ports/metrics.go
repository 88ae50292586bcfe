package ports

// Metrics records engine counters
type Metrics interface {
	IncRuns(status string)
	IncTargets(kind, outcome string)
	IncFolderSyncs(status string)
	ObserveRunDuration(seconds float64)
}

// NoopMetrics implements Metrics without emitting anything
type NoopMetrics struct{}

func (NoopMetrics) IncRuns(string)             {}
func (NoopMetrics) IncTargets(string, string)  {}
func (NoopMetrics) IncFolderSyncs(string)      {}
func (NoopMetrics) ObserveRunDuration(float64) {}
