package notify

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/domain"
)

// ErrNoChannelAvailable means no active notification channel exists. It is
// surfaced to the shopper and blocks submission; nothing is retried.
var ErrNoChannelAvailable = errors.New("no active notification channel available")

const defaultMessagingDomain = "wa.me"

// messageTemplate is fixed text, not user-editable. The two slots are the
// order reference URL and the total formatted to two decimal places.
const messageTemplate = "🛍️ New Order Request:\n\n📋 Order Details:\n%s\n\n💰 Total*: ₹%s\n<i>*Delivery charge extra except for pickup.</i>\n\nPlease review the order details and confirm. Thank you!"

// Handoff is a composed message bound to one channel, ready for the external
// dispatch mechanism. Opening the deep link is the whole dispatch contract:
// no delivery receipt is obtained.
type Handoff struct {
	ChannelAddress string `json:"channel_address"`
	ChannelName    string `json:"channel_name"`
	OrderURL       string `json:"order_url"`
	Message        string `json:"message"`
	DeepLink       string `json:"deep_link"`
}

// Router selects an outbound channel and composes the handoff message for a
// submitted order.
type Router struct {
	origin          string
	messagingDomain string
	selector        Selector
}

func NewRouter(origin string, selector Selector) *Router {
	return &Router{
		origin:          strings.TrimSuffix(origin, "/"),
		messagingDomain: defaultMessagingDomain,
		selector:        selector,
	}
}

// FilterActive returns the channels with the active flag set.
func FilterActive(channels []domain.NotificationChannel) []domain.NotificationChannel {
	var active []domain.NotificationChannel
	for _, c := range channels {
		if c.Active {
			active = append(active, c)
		}
	}
	return active
}

// BuildHandoff picks one active channel and composes the order message.
func (r *Router) BuildHandoff(orderID uuid.UUID, total int64, channels []domain.NotificationChannel) (*Handoff, error) {
	active := FilterActive(channels)
	if len(active) == 0 {
		return nil, ErrNoChannelAvailable
	}

	channel := r.selector.Select(active)

	orderURL := fmt.Sprintf("%s/order/%s", r.origin, orderID)
	message := fmt.Sprintf(messageTemplate, orderURL, domain.FormatAmount(total))

	// The deep link address is the phone number with the leading "+" dropped,
	// per the messaging provider's URL scheme.
	address := strings.TrimPrefix(channel.Address, "+")
	deepLink := fmt.Sprintf("https://%s/%s?text=%s", r.messagingDomain, address, url.QueryEscape(message))

	return &Handoff{
		ChannelAddress: channel.Address,
		ChannelName:    channel.Name,
		OrderURL:       orderURL,
		Message:        message,
		DeepLink:       deepLink,
	}, nil
}
