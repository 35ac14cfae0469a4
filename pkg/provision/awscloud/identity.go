package awscloud

import (
	"context"
	"fmt"

	"github.com/meridianops/runnerfleet/pkg/fleet/identity"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/iam"
	"go.uber.org/zap"
)

// ApplyPlan implements identity.Provisioner. Names in a plan derive
// deterministically from the group name, so already-existing resources
// mean an earlier apply of the same plan and are not failures.
func (c *Client) ApplyPlan(ctx context.Context, plan identity.Plan) error {
	if !plan.Create {
		return nil
	}

	var tags []*iam.Tag
	for key, value := range plan.Identity.Tags {
		tags = append(tags, &iam.Tag{Key: aws.String(key), Value: aws.String(value)})
	}

	_, err := c.iam.CreateRoleWithContext(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(plan.Identity.RoleName),
		AssumeRolePolicyDocument: aws.String(plan.Identity.AssumeRolePolicy),
		Tags:                     tags,
	})
	if err != nil && !alreadyExists(err) {
		return fmt.Errorf("failed to create role %s: %w", plan.Identity.RoleName, err)
	}

	_, err = c.iam.AttachRolePolicyWithContext(ctx, &iam.AttachRolePolicyInput{
		RoleName:  aws.String(plan.Identity.RoleName),
		PolicyArn: aws.String(plan.Identity.ManagedPolicyARN),
	})
	if err != nil {
		return fmt.Errorf("failed to attach baseline policy: %w", err)
	}

	_, err = c.iam.CreateInstanceProfileWithContext(ctx, &iam.CreateInstanceProfileInput{
		InstanceProfileName: aws.String(plan.Binding.ProfileName),
	})
	if err != nil && !alreadyExists(err) {
		return fmt.Errorf("failed to create instance profile %s: %w", plan.Binding.ProfileName, err)
	}

	_, err = c.iam.AddRoleToInstanceProfileWithContext(ctx, &iam.AddRoleToInstanceProfileInput{
		InstanceProfileName: aws.String(plan.Binding.ProfileName),
		RoleName:            aws.String(plan.Binding.RoleName),
	})
	if err != nil && !alreadyExists(err) && !limitExceeded(err) {
		return fmt.Errorf("failed to bind role to instance profile: %w", err)
	}

	c.logger.Info("applied identity plan",
		zap.String("role", plan.Identity.RoleName),
		zap.String("instanceProfile", plan.Binding.ProfileName),
	)
	return nil
}

func alreadyExists(err error) bool {
	if aerr, ok := err.(awserr.Error); ok {
		return aerr.Code() == iam.ErrCodeEntityAlreadyExistsException
	}
	return false
}

// limitExceeded is how IAM reports a profile that already carries its
// one allowed role.
func limitExceeded(err error) bool {
	if aerr, ok := err.(awserr.Error); ok {
		return aerr.Code() == iam.ErrCodeLimitExceededException
	}
	return false
}
