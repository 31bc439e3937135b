package config

const (
	agentBEURLVar = "AGENT_BE_URL"
	suiRPCURLVar  = "SUI_RPC_URL"
	suiNetworkVar = "SUI_NETWORK"
)

type BackendConfig interface {
	GetBackendBaseURL() string
	GetRPCURL() string
	GetNetwork() string
}

type Backend struct{}

var _ BackendConfig = Backend{}

// GetBackendBaseURL has no default: an unset AgentBE URL is a configuration error at call time.
func (Backend) GetBackendBaseURL() string {
	return GetEnv(agentBEURLVar, "")
}

// GetRPCURL returns the explicit fullnode URL. When empty the network name is used to derive one.
func (Backend) GetRPCURL() string {
	return GetEnv(suiRPCURLVar, "")
}

func (Backend) GetNetwork() string {
	return GetEnv(suiNetworkVar, "testnet")
}
