package netlist

import (
	"strings"

	dto "chainstate/internal/adapter/storage/netlist/dto"
	"chainstate/internal/domain/entity"

	"go.uber.org/zap"
)

// toDomainNetworks converts raw YAML entries to domain networks, skipping entries without an endpoint.
func toDomainNetworks(raw dto.NetworkListRaw, logger *zap.Logger) []entity.Network {
	networks := make([]entity.Network, 0, len(raw.Networks))
	for i, n := range raw.Networks {
		endpoint := strings.TrimSpace(n.Endpoint)
		if endpoint == "" {
			if logger != nil {
				logger.Warn("Skipping network entry without endpoint", zap.Int("index", i))
			}
			continue
		}
		tags := make([]string, 0, len(n.Tags))
		for _, t := range n.Tags {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		networks = append(networks, entity.NewNetwork(endpoint, tags))
	}
	return networks
}
