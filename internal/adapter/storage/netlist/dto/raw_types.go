package netlist_dto

// NetworkListRaw is the YAML form of an endpoint list.
type NetworkListRaw struct {
	Networks []NetworkRaw `yaml:"networks"`
}

// NetworkRaw is one endpoint entry of a YAML list.
type NetworkRaw struct {
	Endpoint string   `yaml:"endpoint"`
	Tags     []string `yaml:"tags,omitempty"`
}
