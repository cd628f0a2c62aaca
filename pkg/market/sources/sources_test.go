package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricebot/pkg/market"
)

func TestBuildWiresConfiguredEndpoints(t *testing.T) {
	const lower = "0x8076c74c5e3f5852037f31ff0093eeb8c8add8d3"
	checksummed := common.HexToAddress(lower).Hex()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/tokens":
			_, _ = w.Write([]byte(`{"updated_at":1,"data":{"` + checksummed + `":{"price":"1.5"}}}`))
		case "/api":
			assert.Equal(t, "k", r.URL.Query().Get("apikey"))
			assert.Equal(t, checksummed, r.URL.Query().Get("contractaddress"))
			_, _ = w.Write([]byte(`{"status":"1","message":"OK","result":"2500"}`))
		case "/widget":
			assert.Equal(t, "42", r.URL.Query().Get("id"))
			_, _ = w.Write([]byte(`{"data":{"42":{"quote":{"USD":{"price":1.5,"percent_change_1h":0,"percent_change_24h":0,"percent_change_7d":0}}}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	yaml := `
token:
  contract: "` + lower + `"
  cmc_id: 42
  burn_scale_exp: 3
sources:
  pancakeswap:
    base_url: ` + server.URL + `/tokens
    http_timeout: 2s
  bscscan:
    base_url: ` + server.URL + `/api
    api_key: k
  coinmarketcap:
    base_url: ` + server.URL + `/widget
`
	cfg, err := market.LoadConfigFromReader(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, checksummed, cfg.Token.Contract)

	set := Build(cfg)
	ctx := context.Background()

	price := set.Price.FetchSpotPrice(ctx)
	require.True(t, price.Ok(), "price: %v", price.Err())
	tp, ok := price.Value().Lookup(cfg.Token.Contract)
	require.True(t, ok)
	assert.Equal(t, "1.5", tp.Price)

	burn := set.Burn.FetchBurnedSupply(ctx)
	require.True(t, burn.Ok(), "burn: %v", burn.Err())
	assert.Equal(t, "2.5000", burn.Value().Amount.StringFixed(4))

	widget := set.Widget.FetchWidget(ctx)
	require.True(t, widget.Ok(), "widget: %v", widget.Err())
	assert.Equal(t, 42, widget.Value().ID)
}
