package twitch

import (
	"encoding/json"
	"testing"

	"github.com/nicklaw5/helix/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name string
		typ  SubscriptionType
		raw  string
		want Event
	}{
		{
			name: "follow",
			typ:  SubChannelFollow,
			raw:  `{"user_id":"1","user_login":"alice","user_name":"Alice"}`,
			want: Follow{UserID: "1", UserLogin: "alice", UserName: "Alice"},
		},
		{
			name: "cheer",
			typ:  SubChannelCheer,
			raw:  `{"user_name":"bob","bits":250,"message":"hi"}`,
		},
		{
			name: "raid",
			typ:  SubChannelRaid,
			raw:  `{"from_broadcaster_user_name":"carol","viewers":42}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeEvent(tt.typ, json.RawMessage(tt.raw))
			require.NoError(t, err)
			if tt.want != nil {
				assert.Equal(t, tt.want, ev)
			}
		})
	}
}

func TestDecodeEventFields(t *testing.T) {
	ev, err := DecodeEvent(SubChannelCheer, json.RawMessage(`{"user_name":"bob","bits":250}`))
	require.NoError(t, err)
	cheer, ok := ev.(Cheer)
	require.True(t, ok)
	assert.Equal(t, 250, cheer.Bits)
	assert.Equal(t, "cheer", cheer.EventType())

	ev, err = DecodeEvent(SubChannelRaid, json.RawMessage(`{"viewers":42}`))
	require.NoError(t, err)
	assert.Equal(t, 42, ev.(Raid).Viewers)
}

func TestDecodeEventRejectsUnknownType(t *testing.T) {
	_, err := DecodeEvent("channel.unknown", json.RawMessage(`{}`))
	assert.Error(t, err)

	_, err = DecodeEvent(SubChannelFollow, json.RawMessage(`{"user_id":`))
	assert.Error(t, err)
}

func TestTierMultiplier(t *testing.T) {
	assert.Equal(t, 1, TierMultiplier("1000"))
	assert.Equal(t, 2, TierMultiplier("2000"))
	assert.Equal(t, 3, TierMultiplier("3000"))
	assert.Equal(t, 1, TierMultiplier(""))
}

func TestConditionUsesRaidTarget(t *testing.T) {
	c := SubChannelRaid.condition("b", "u")
	assert.Equal(t, helix.EventSubCondition{ToBroadcasterUserID: "b"}, c)
	assert.Equal(t, helix.EventSubCondition{BroadcasterUserID: "b", ModeratorUserID: "u"}, SubChannelFollow.condition("b", "u"))
	assert.Equal(t, "2", SubChannelFollow.version())
	assert.Equal(t, "1", SubChannelCheer.version())
}
