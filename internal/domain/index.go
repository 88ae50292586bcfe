package domain

import "time"

// SyncStats holds statistics from an external folder reconciliation
type SyncStats struct {
	PluginsAdded   int
	PluginsUpdated int
	PluginsDeleted int
	FilesScanned   int
	FilesSkipped   int // Unreadable, malformed or not plugin-eligible
	Duplicates     int // Files whose identifier was already claimed
	Duration       time.Duration
}

// RunReport summarizes one update run
type RunReport struct {
	Skipped   bool // Another run was already in progress
	Targets   int
	Installed int
	UpToDate  int
	Missing   int // External destinations removed by the user
	Failed    int
	Duration  time.Duration
}
