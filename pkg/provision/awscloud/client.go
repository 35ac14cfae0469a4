// Package awscloud is the provisioning collaborator. The core emits
// identifier strings and plans; this package resolves them against the
// platform. Nothing here participates in configuration resolution.
package awscloud

import (
	"net/http"

	"github.com/meridianops/runnerfleet/pkg/utils/ratelimit"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/iam"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Client struct {
	logger  *zap.Logger
	ec2     *ec2.EC2
	iam     *iam.IAM
	s3      *s3.S3
	secrets *secretsmanager.SecretsManager
}

func New(logger *zap.Logger, region string, rps rate.Limit, burst int) (*Client, error) {
	httpClient := &http.Client{
		Transport: ratelimit.NewTransport(http.DefaultTransport, rps, burst),
	}
	conf := aws.NewConfig().
		WithRegion(region).
		WithHTTPClient(httpClient).
		WithCredentialsChainVerboseErrors(true)

	sess, err := session.NewSession(conf)
	if err != nil {
		return nil, err
	}

	return &Client{
		logger:  logger.Named("awscloud"),
		ec2:     ec2.New(sess),
		iam:     iam.New(sess),
		s3:      s3.New(sess),
		secrets: secretsmanager.New(sess),
	}, nil
}
