// Package sui reads chain state from a Sui fullnode over JSON-RPC.
package sui

import (
	"context"
	"strconv"

	"github.com/ethereum/go-ethereum/rpc"
	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
)

const latestSystemStateMethod = "suix_getLatestSuiSystemState"

var fullnodes = map[string]string{
	"mainnet":  "https://fullnode.mainnet.sui.io:443",
	"testnet":  "https://fullnode.testnet.sui.io:443",
	"devnet":   "https://fullnode.devnet.sui.io:443",
	"localnet": "http://127.0.0.1:9000",
}

// FullnodeURL returns the public fullnode RPC URL of a network.
func FullnodeURL(network string) (string, error) {
	u, ok := fullnodes[network]
	if !ok {
		return "", apperrors.Wrapf(apperrors.ErrConfiguration, "unknown sui network %q", network)
	}
	return u, nil
}

// Client is a Sui JSON-RPC client. It satisfies the epoch source of the login flow.
type Client struct {
	rpc *rpc.Client
}

func Dial(ctx context.Context, url string) (*Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "dial sui rpc %s", url)
	}
	return &Client{rpc: c}, nil
}

type systemState struct {
	Epoch string `json:"epoch"`
}

// LatestEpoch returns the current epoch of the network.
func (c *Client) LatestEpoch(ctx context.Context) (uint64, error) {
	var state systemState
	if err := c.rpc.CallContext(ctx, &state, latestSystemStateMethod); err != nil {
		return 0, apperrors.Wrapf(err, "%s", latestSystemStateMethod)
	}
	epoch, err := strconv.ParseUint(state.Epoch, 10, 64)
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrInternal, "invalid epoch %q", state.Epoch)
	}
	return epoch, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}
