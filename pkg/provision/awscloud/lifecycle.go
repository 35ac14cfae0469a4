package awscloud

import (
	"context"
	"fmt"

	"github.com/meridianops/runnerfleet/pkg/fleet"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"
)

// ApplyCacheLifecycle reconciles the cache bucket's expiry rule with
// the resolved configuration. A zero day count means objects never
// expire, so any existing rule is removed.
func (c *Client) ApplyCacheLifecycle(ctx context.Context, cache fleet.CacheConfig) error {
	if cache.Bucket == "" {
		return nil
	}

	if !cache.LifecycleEnabled() {
		_, err := c.s3.DeleteBucketLifecycleWithContext(ctx, &s3.DeleteBucketLifecycleInput{
			Bucket: aws.String(cache.Bucket),
		})
		if err != nil {
			return fmt.Errorf("failed to remove lifecycle from bucket %s: %w", cache.Bucket, err)
		}
		return nil
	}

	_, err := c.s3.PutBucketLifecycleConfigurationWithContext(ctx, &s3.PutBucketLifecycleConfigurationInput{
		Bucket: aws.String(cache.Bucket),
		LifecycleConfiguration: &s3.BucketLifecycleConfiguration{
			Rules: []*s3.LifecycleRule{
				{
					ID:     aws.String("cache-expiry"),
					Status: aws.String("Enabled"),
					Filter: &s3.LifecycleRuleFilter{Prefix: aws.String("")},
					Expiration: &s3.LifecycleExpiration{
						Days: aws.Int64(int64(cache.ExpirationDays)),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to set lifecycle on bucket %s: %w", cache.Bucket, err)
	}

	c.logger.Info("applied cache lifecycle",
		zap.String("bucket", cache.Bucket),
		zap.Int("expirationDays", cache.ExpirationDays),
	)
	return nil
}
