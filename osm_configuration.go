package pt2itp

// OsmConfiguration Allows to filter ways by certain tags from OSM data
type OsmConfiguration struct {
	EntityName string // Currrently we support 'highway' only
	Tags       []string
}

// DefaultHighwayTags returns highway values of streets which usually carry addresses
func DefaultHighwayTags() []string {
	return []string{
		"motorway", "trunk", "primary", "secondary", "tertiary", "unclassified",
		"residential", "living_street", "service", "pedestrian", "road",
		"primary_link", "secondary_link", "tertiary_link",
	}
}

// CheckTag Checks if incoming tag is represented in configuration
func (cfg *OsmConfiguration) CheckTag(tag string) bool {
	for i := range cfg.Tags {
		if cfg.Tags[i] == tag {
			return true
		}
	}
	return false
}
