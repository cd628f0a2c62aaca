package discordchat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterRoute(t *testing.T) {
	r := NewRouter("")
	var got []string
	r.Handle("Price", func(_ context.Context, channelID string) {
		got = append(got, channelID)
	})

	tests := []struct {
		name    string
		content string
		fromBot bool
		want    bool
	}{
		{name: "exact", content: "!price", want: true},
		{name: "upper case", content: "!PRICE", want: true},
		{name: "padded", content: "  !price \n", want: true},
		{name: "no prefix", content: "price", want: false},
		{name: "other command", content: "!chart", want: false},
		{name: "trailing words", content: "!price now", want: false},
		{name: "from bot", content: "!price", fromBot: true, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(got)
			ok := r.Route(context.Background(), "42", tt.content, tt.fromBot)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				require.Len(t, got, before+1)
				assert.Equal(t, "42", got[len(got)-1])
			} else {
				assert.Len(t, got, before)
			}
		})
	}
}

func TestRouterCustomPrefix(t *testing.T) {
	r := NewRouter("$")
	called := false
	r.Handle("price", func(context.Context, string) { called = true })

	assert.False(t, r.Route(context.Background(), "1", "!price", false))
	assert.True(t, r.Route(context.Background(), "1", "$price", false))
	assert.True(t, called)
	assert.Equal(t, []string{"price"}, r.Keywords())
}

func TestRouterIgnoresEmptyRegistrations(t *testing.T) {
	r := NewRouter("!")
	r.Handle("  ", func(context.Context, string) {})
	r.Handle("price", nil)
	assert.Empty(t, r.Keywords())
}

func TestParseChannelID(t *testing.T) {
	id, err := ParseChannelID("828471113754869770")
	require.NoError(t, err)
	assert.Equal(t, "828471113754869770", id.String())

	_, err = ParseChannelID("general")
	assert.Error(t, err)
	_, err = ParseChannelID("")
	assert.Error(t, err)
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New("", "!")
	assert.Error(t, err)
}
