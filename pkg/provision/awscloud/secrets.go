package awscloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
)

// Resolve implements compile.SecretSource for indirect token
// references.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	output, err := c.secrets.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(ref),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", ref, err)
	}
	return aws.StringValue(output.SecretString), nil
}
