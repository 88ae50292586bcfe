package application

import "intelstack/internal/domain"

// Re-export domain types for use by adapters
type (
	Plugin          = domain.Plugin
	Filter          = domain.Filter
	CommunityPlugin = domain.CommunityPlugin
)
