package push

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"

	"table-orders/internal/domain"
	"table-orders/internal/microservices/notificator/payload"
)

type snsAPI interface {
	CreatePlatformEndpoint(ctx context.Context, in *awssns.CreatePlatformEndpointInput, optFns ...func(*awssns.Options)) (*awssns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, in *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

// SNS delivers through an SNS platform application. Each token is turned
// into a platform endpoint once and the ARN is cached.
type SNS struct {
	api         snsAPI
	platformARN string

	mu        sync.Mutex
	endpoints map[string]string
}

func NewSNS(ctx context.Context, region, platformARN string) (*SNS, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return newSNS(awssns.NewFromConfig(cfg), platformARN), nil
}

func newSNS(api snsAPI, platformARN string) *SNS {
	return &SNS{api: api, platformARN: platformARN, endpoints: make(map[string]string)}
}

func (s *SNS) Ready() error {
	if s.platformARN == "" {
		return fmt.Errorf("%w: Missing SNS_PLATFORM_ARN", domain.ErrMissingCredentials)
	}
	return nil
}

func (s *SNS) endpointFor(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	arn, ok := s.endpoints[token]
	s.mu.Unlock()
	if ok {
		return arn, nil
	}

	out, err := s.api.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(s.platformARN),
		Token:                  aws.String(token),
	})
	if err != nil {
		return "", fmt.Errorf("create platform endpoint: %w", err)
	}
	arn = aws.ToString(out.EndpointArn)

	s.mu.Lock()
	s.endpoints[token] = arn
	s.mu.Unlock()
	return arn, nil
}

func (s *SNS) Send(ctx context.Context, msg payload.Message) (string, error) {
	if err := s.Ready(); err != nil {
		return "", err
	}
	arn, err := s.endpointFor(ctx, msg.Token)
	if err != nil {
		return "", err
	}
	body, err := SNSMessage(msg)
	if err != nil {
		return "", err
	}
	out, err := s.api.Publish(ctx, &awssns.PublishInput{
		MessageStructure: aws.String("json"),
		Message:          aws.String(body),
		TargetArn:        aws.String(arn),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}

// SNSMessage renders the per-protocol JSON document SNS expects when
// MessageStructure is "json": every protocol value is itself a JSON string.
func SNSMessage(msg payload.Message) (string, error) {
	gcm, err := json.Marshal(map[string]any{
		"notification": map[string]string{
			"title":              msg.Notification.Title,
			"body":               msg.Notification.Body,
			"sound":              msg.Android.Sound,
			"android_channel_id": msg.Android.ChannelID,
		},
		"data":     msg.Data,
		"priority": msg.Android.Priority,
	})
	if err != nil {
		return "", err
	}
	apns, err := json.Marshal(map[string]any{
		"aps": map[string]any{
			"alert": map[string]string{"title": msg.Notification.Title, "body": msg.Notification.Body},
			"sound": msg.APNS.Sound,
		},
		"data": msg.Data,
	})
	if err != nil {
		return "", err
	}
	doc, err := json.Marshal(map[string]string{
		"default": msg.Notification.Body,
		"GCM":     string(gcm),
		"APNS":    string(apns),
	})
	if err != nil {
		return "", err
	}
	return string(doc), nil
}
