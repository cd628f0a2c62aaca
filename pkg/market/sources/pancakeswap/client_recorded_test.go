package pancakeswap

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/dnaeon/go-vcr/recorder"
	"github.com/stretchr/testify/assert"
)

// This test uses go-vcr to record/replay a real token index call.
// It skips by default if cassette is absent and RECORD_CASSETTES != 1.
func TestClient_FetchSpotPrice_Recorded(t *testing.T) {
	cassette := filepath.Join("testdata", "cassettes", "pancakeswap_tokens")
	if _, err := os.Stat(cassette + ".yaml"); os.IsNotExist(err) {
		if os.Getenv("RECORD_CASSETTES") != "1" {
			t.Skipf("cassette missing; set RECORD_CASSETTES=1 to record: %s.yaml", cassette)
		}
		err := os.MkdirAll(filepath.Dir(cassette), 0o755)
		assert.NoError(t, err, "mkdir cassettes dir should succeed")
	}

	r, err := recorder.New(cassette)
	assert.NoError(t, err, "recorder.New should not error")
	assert.NotNil(t, r, "recorder should not be nil")
	defer func() { _ = r.Stop() }()

	client := NewClient(WithHTTPClient(&http.Client{Transport: r}))
	res := client.FetchSpotPrice(context.Background())
	assert.True(t, res.Ok(), "FetchSpotPrice should succeed: %v", res.Err())
	tp, ok := res.Value().Lookup(trackedContract)
	assert.True(t, ok, "tracked contract should be listed")
	assert.NotEmpty(t, tp.Price, "price should not be empty")
}
