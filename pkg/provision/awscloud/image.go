package awscloud

import (
	"context"
	"fmt"
	"sort"

	"github.com/meridianops/runnerfleet/pkg/fleet/resolve"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"
)

// LatestImage implements resolve.ImageSource: the most recent available
// image matching the fixed search filter.
func (c *Client) LatestImage(ctx context.Context) (string, error) {
	var filters []*ec2.Filter
	for name, values := range resolve.ImageFilter {
		filters = append(filters, &ec2.Filter{
			Name:   aws.String(name),
			Values: aws.StringSlice(values),
		})
	}

	output, err := c.ec2.DescribeImagesWithContext(ctx, &ec2.DescribeImagesInput{
		Filters: filters,
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe images: %w", err)
	}
	if len(output.Images) == 0 {
		return "", fmt.Errorf("no image matches the default search filter")
	}

	images := output.Images
	sort.Slice(images, func(i, j int) bool {
		return aws.StringValue(images[i].CreationDate) > aws.StringValue(images[j].CreationDate)
	})
	return aws.StringValue(images[0].ImageId), nil
}
