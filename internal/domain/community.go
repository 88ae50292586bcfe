package domain

// CommunityStatus describes a community plugin relative to the catalog
type CommunityStatus int

const (
	CommunityAvailable CommunityStatus = iota
	CommunityAdded
	CommunityOutdated
)

// String returns the string representation of a CommunityStatus
func (s CommunityStatus) String() string {
	switch s {
	case CommunityAdded:
		return "added"
	case CommunityOutdated:
		return "outdated"
	default:
		return "available"
	}
}

// CommunityPlugin is a plugin listed in the community index
type CommunityPlugin struct {
	Author       string
	Filename     string
	AntiFeatures []string
	Metadata     PluginMetadata
	Status       CommunityStatus
}
