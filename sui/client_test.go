package sui_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
	"github.com/jrsteele09/go-zklogin/sui"
	"github.com/stretchr/testify/require"
)

func newNode(t *testing.T, epoch string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if req.Method == "suix_getLatestSuiSystemState" {
			resp["result"] = map[string]any{"epoch": epoch, "protocolVersion": "70"}
		} else {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLatestEpoch(t *testing.T) {
	ctx := context.Background()

	t.Run("decimal epoch", func(t *testing.T) {
		c, err := sui.Dial(ctx, newNode(t, "718").URL)
		require.NoError(t, err)
		defer c.Close()

		epoch, err := c.LatestEpoch(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(718), epoch)
	})

	t.Run("invalid epoch", func(t *testing.T) {
		c, err := sui.Dial(ctx, newNode(t, "soon").URL)
		require.NoError(t, err)
		defer c.Close()

		_, err = c.LatestEpoch(ctx)
		require.ErrorIs(t, err, apperrors.ErrInternal)
	})
}

func TestFullnodeURL(t *testing.T) {
	u, err := sui.FullnodeURL("testnet")
	require.NoError(t, err)
	require.Equal(t, "https://fullnode.testnet.sui.io:443", u)

	_, err = sui.FullnodeURL("moonnet")
	require.ErrorIs(t, err, apperrors.ErrConfiguration)
}
