package twitch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nicklaw5/helix/v2"
)

// SubscriptionType names an EventSub subscription.
type SubscriptionType string

const (
	SubAdBreakBegin        SubscriptionType = "channel.ad_break.begin"
	SubRewardRedemptionAdd SubscriptionType = "channel.channel_points_custom_reward_redemption.add"
	SubChannelFollow       SubscriptionType = "channel.follow"
	SubChannelSubscribe    SubscriptionType = "channel.subscribe"
	SubSubscriptionMessage SubscriptionType = "channel.subscription.message"
	SubSubscriptionGift    SubscriptionType = "channel.subscription.gift"
	SubChannelCheer        SubscriptionType = "channel.cheer"
	SubChannelRaid         SubscriptionType = "channel.raid"
	SubChatMessage         SubscriptionType = "channel.chat.message"
)

// DefaultSubscriptions is the set the overlay reacts to.
var DefaultSubscriptions = []SubscriptionType{
	SubAdBreakBegin,
	SubRewardRedemptionAdd,
	SubChannelFollow,
	SubChannelSubscribe,
	SubSubscriptionMessage,
	SubSubscriptionGift,
	SubChannelCheer,
	SubChannelRaid,
	SubChatMessage,
}

// Scopes are the OAuth scopes DefaultSubscriptions and chat sending need.
var Scopes = []string{
	"bits:read",
	"channel:read:ads",
	"channel:read:redemptions",
	"channel:read:subscriptions",
	"moderator:read:followers",
	"user:read:chat",
	"user:write:chat",
}

func (t SubscriptionType) version() string {
	if t == SubChannelFollow {
		return "2"
	}
	return "1"
}

func (t SubscriptionType) condition(broadcasterID, userID string) helix.EventSubCondition {
	switch t {
	case SubChannelFollow:
		return helix.EventSubCondition{BroadcasterUserID: broadcasterID, ModeratorUserID: userID}
	case SubChannelRaid:
		return helix.EventSubCondition{ToBroadcasterUserID: broadcasterID}
	case SubChatMessage:
		return helix.EventSubCondition{BroadcasterUserID: broadcasterID, UserID: userID}
	default:
		return helix.EventSubCondition{BroadcasterUserID: broadcasterID}
	}
}

// Event is anything the session delivers to the overlay.
type Event interface {
	EventType() string
}

// Ready is sent once the socket is welcomed and every subscription exists.
type Ready struct {
	SessionID string
	Login     string
}

// Finished is sent when the session stops, with the error that stopped it
// if any.
type Finished struct {
	Err error
}

// Revoked is sent when Twitch revokes a subscription.
type Revoked struct {
	Type   SubscriptionType
	Status string
}

type Follow struct {
	UserID     string    `json:"user_id"`
	UserLogin  string    `json:"user_login"`
	UserName   string    `json:"user_name"`
	FollowedAt time.Time `json:"followed_at"`
}

type Subscribe struct {
	UserID    string `json:"user_id"`
	UserLogin string `json:"user_login"`
	UserName  string `json:"user_name"`
	Tier      string `json:"tier"`
	IsGift    bool   `json:"is_gift"`
}

type Resubscribe struct {
	UserID           string `json:"user_id"`
	UserLogin        string `json:"user_login"`
	UserName         string `json:"user_name"`
	Tier             string `json:"tier"`
	Message          Text   `json:"message"`
	CumulativeMonths int    `json:"cumulative_months"`
	StreakMonths     *int   `json:"streak_months"`
	DurationMonths   int    `json:"duration_months"`
}

type GiftSubscription struct {
	UserID          *string `json:"user_id"`
	UserLogin       *string `json:"user_login"`
	UserName        *string `json:"user_name"`
	Total           int     `json:"total"`
	Tier            string  `json:"tier"`
	CumulativeTotal *int    `json:"cumulative_total"`
	IsAnonymous     bool    `json:"is_anonymous"`
}

type Cheer struct {
	IsAnonymous bool    `json:"is_anonymous"`
	UserID      *string `json:"user_id"`
	UserLogin   *string `json:"user_login"`
	UserName    *string `json:"user_name"`
	Message     string  `json:"message"`
	Bits        int     `json:"bits"`
}

type Raid struct {
	FromBroadcasterUserID    string `json:"from_broadcaster_user_id"`
	FromBroadcasterUserLogin string `json:"from_broadcaster_user_login"`
	FromBroadcasterUserName  string `json:"from_broadcaster_user_name"`
	Viewers                  int    `json:"viewers"`
}

type AdBreakBegin struct {
	DurationSeconds int       `json:"duration_seconds"`
	StartedAt       time.Time `json:"started_at"`
	IsAutomatic     bool      `json:"is_automatic"`
}

type Reward struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Cost   int    `json:"cost"`
	Prompt string `json:"prompt"`
}

type RewardRedemption struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	UserLogin  string    `json:"user_login"`
	UserName   string    `json:"user_name"`
	UserInput  string    `json:"user_input"`
	Status     string    `json:"status"`
	Reward     Reward    `json:"reward"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

type ChatMessage struct {
	ChatterUserID    string `json:"chatter_user_id"`
	ChatterUserLogin string `json:"chatter_user_login"`
	ChatterUserName  string `json:"chatter_user_name"`
	MessageID        string `json:"message_id"`
	Message          Text   `json:"message"`
	Color            string `json:"color"`
}

// Text is the message object shared by chat and resub events.
type Text struct {
	Text string `json:"text"`
}

func (Ready) EventType() string { return "ready" }
func (Finished) EventType() string { return "finished" }
func (Revoked) EventType() string { return "revoked" }
func (Follow) EventType() string { return "follow" }
func (Subscribe) EventType() string { return "subscribe" }
func (Resubscribe) EventType() string { return "resubscribe" }
func (GiftSubscription) EventType() string { return "gift_subscription" }
func (Cheer) EventType() string { return "cheer" }
func (Raid) EventType() string { return "raid" }
func (AdBreakBegin) EventType() string { return "ad_break" }
func (RewardRedemption) EventType() string { return "redemption" }
func (ChatMessage) EventType() string { return "chat" }

// DecodeEvent turns a notification's event object into a typed Event.
func DecodeEvent(typ SubscriptionType, raw json.RawMessage) (Event, error) {
	var (
		ev  Event
		err error
	)
	switch typ {
	case SubChannelFollow:
		ev, err = decodeAs[Follow](raw)
	case SubChannelSubscribe:
		ev, err = decodeAs[Subscribe](raw)
	case SubSubscriptionMessage:
		ev, err = decodeAs[Resubscribe](raw)
	case SubSubscriptionGift:
		ev, err = decodeAs[GiftSubscription](raw)
	case SubChannelCheer:
		ev, err = decodeAs[Cheer](raw)
	case SubChannelRaid:
		ev, err = decodeAs[Raid](raw)
	case SubAdBreakBegin:
		ev, err = decodeAs[AdBreakBegin](raw)
	case SubRewardRedemptionAdd:
		ev, err = decodeAs[RewardRedemption](raw)
	case SubChatMessage:
		ev, err = decodeAs[ChatMessage](raw)
	default:
		return nil, fmt.Errorf("twitch: unsupported subscription type %q", typ)
	}
	if err != nil {
		return nil, fmt.Errorf("twitch: decode %s: %w", typ, err)
	}
	return ev, nil
}

func decodeAs[T Event](raw json.RawMessage) (Event, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// TierMultiplier maps a subscription tier ("1000", "2000", "3000") to 1, 2
// or 3. Prime subscriptions count as tier 1.
func TierMultiplier(tier string) int {
	switch tier {
	case "2000":
		return 2
	case "3000":
		return 3
	default:
		return 1
	}
}
