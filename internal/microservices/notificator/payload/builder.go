// Package payload builds the platform-neutral push message for an order.
package payload

import (
	"encoding/json"
	"fmt"

	"table-orders/internal/domain"
)

const (
	Title        = "新しい注文"
	bodyFormat   = "%sから注文が入りました"
	PriorityHigh = "high"
)

// Payload is one notification before it is addressed to a device.
type Payload struct {
	Data         map[string]string `json:"data"`
	Notification Notification      `json:"notification"`
	Android      AndroidConfig     `json:"android"`
	APNS         APNSConfig        `json:"apns"`
}

type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type AndroidConfig struct {
	Priority  string `json:"priority"`
	ChannelID string `json:"channel_id"`
	Sound     string `json:"sound"`
}

type APNSConfig struct {
	Sound string `json:"sound"`
}

// Message is a Payload addressed to a single token.
type Message struct {
	Payload
	Token string `json:"token"`
}

func (p Payload) ForToken(token string) Message {
	return Message{Payload: p, Token: token}
}

type Options struct {
	Sound          string // alert sound name without extension
	AndroidChannel string
	APNSSoundExt   string // e.g. ".caf"
}

func DefaultOptions() Options {
	return Options{Sound: "notify", AndroidChannel: "orders", APNSSoundExt: ".caf"}
}

type Builder struct {
	opts Options
}

func NewBuilder(opts Options) *Builder {
	def := DefaultOptions()
	if opts.Sound == "" {
		opts.Sound = def.Sound
	}
	if opts.AndroidChannel == "" {
		opts.AndroidChannel = def.AndroidChannel
	}
	if opts.APNSSoundExt == "" {
		opts.APNSSoundExt = def.APNSSoundExt
	}
	return &Builder{opts: opts}
}

// Build has no side effects; equal orders give equal payloads.
func (b *Builder) Build(order domain.Order) Payload {
	items := order.Items
	if items == nil {
		items = []domain.OrderItem{}
	}
	// a slice of flat structs always marshals
	raw, _ := json.Marshal(items)

	return Payload{
		Data: map[string]string{
			"orderId":   order.ID,
			"tableName": order.TableName,
			"status":    string(order.Status),
			"items":     string(raw),
		},
		Notification: Notification{
			Title: Title,
			Body:  fmt.Sprintf(bodyFormat, order.TableName),
		},
		Android: AndroidConfig{
			Priority:  PriorityHigh,
			ChannelID: b.opts.AndroidChannel,
			Sound:     b.opts.Sound,
		},
		APNS: APNSConfig{
			Sound: b.opts.Sound + b.opts.APNSSoundExt,
		},
	}
}
