package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"table-orders/internal/domain"
	"table-orders/internal/microservices/notificator/payload"
)

type FCMCredentials struct {
	ProjectID   string
	ClientEmail string
	PrivateKey  string
}

// Validate reports the first missing field by its environment name.
func (c FCMCredentials) Validate() error {
	switch {
	case c.ProjectID == "":
		return fmt.Errorf("%w: Missing FIREBASE_PROJECT_ID", domain.ErrMissingCredentials)
	case c.ClientEmail == "":
		return fmt.Errorf("%w: Missing FIREBASE_CLIENT_EMAIL", domain.ErrMissingCredentials)
	case c.PrivateKey == "":
		return fmt.Errorf("%w: Missing FIREBASE_PRIVATE_KEY", domain.ErrMissingCredentials)
	}
	return nil
}

func (c FCMCredentials) serviceAccountJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"type":         "service_account",
		"project_id":   c.ProjectID,
		"client_email": c.ClientEmail,
		"private_key":  c.PrivateKey,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
}

type fcmClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCM owns one Firebase messaging client for the life of the process. The
// client is created once; later Init calls return the first result.
type FCM struct {
	creds FCMCredentials

	once    sync.Once
	client  fcmClient
	initErr error

	dial func(ctx context.Context, creds FCMCredentials) (fcmClient, error)
}

func NewFCM(creds FCMCredentials) *FCM {
	return &FCM{creds: creds, dial: dialFirebase}
}

func dialFirebase(ctx context.Context, creds FCMCredentials) (fcmClient, error) {
	raw, err := creds.serviceAccountJSON()
	if err != nil {
		return nil, err
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: creds.ProjectID}, option.WithCredentialsJSON(raw))
	if err != nil {
		return nil, fmt.Errorf("firebase init: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return client, nil
}

func (f *FCM) Ready() error { return f.creds.Validate() }

func (f *FCM) Init(ctx context.Context) error {
	f.once.Do(func() {
		if err := f.creds.Validate(); err != nil {
			f.initErr = err
			return
		}
		f.client, f.initErr = f.dial(ctx, f.creds)
	})
	return f.initErr
}

func (f *FCM) Send(ctx context.Context, msg payload.Message) (string, error) {
	if err := f.Init(ctx); err != nil {
		return "", err
	}
	if f.client == nil {
		return "", errors.New("fcm client not initialized")
	}
	return f.client.Send(ctx, ToFCM(msg))
}

// ToFCM maps an addressed payload onto the Firebase message shape.
func ToFCM(msg payload.Message) *messaging.Message {
	return &messaging.Message{
		Token: msg.Token,
		Data:  maps.Clone(msg.Data),
		Notification: &messaging.Notification{
			Title: msg.Notification.Title,
			Body:  msg.Notification.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: msg.Android.Priority,
			Notification: &messaging.AndroidNotification{
				Sound:     msg.Android.Sound,
				ChannelID: msg.Android.ChannelID,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: msg.APNS.Sound},
			},
		},
	}
}
