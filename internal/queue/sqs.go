package queue

import (
	"context"
	"fmt"

	appconfig "github.com/pribylovaa/go-identity-service/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSAPI — используемое подмножество клиента SQS.
// Выделено в интерфейс, чтобы продюсер и консьюмер тестировались
// против in-memory реализации без сети.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Проверка: реальный клиент удовлетворяет контракту.
var _ SQSAPI = (*sqs.Client)(nil)

// NewSQSClient создаёт клиент SQS из конфигурации сервиса.
// Статические креды и нестандартный endpoint нужны только в
// local-окружении (localstack); в облаке провайдер кредов — штатный.
func NewSQSClient(ctx context.Context, cfg appconfig.AWSConfig) (*sqs.Client, error) {
	const op = "queue.sqs.NewSQSClient"

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return client, nil
}
