// Package identity derives the execution identity of a runner group:
// an execution role plus the instance-profile binding that attaches it
// to the group's machines. A supplied identity passes through as-is;
// otherwise a fresh one is synthesized with the single baseline grant
// needed for managed-instance bootstrapping.
package identity

import (
	"context"
	"fmt"

	"github.com/meridianops/runnerfleet/pkg/fleet"
)

// BaselinePolicyARN is the one managed capability a synthesized
// identity is granted.
const BaselinePolicyARN = "arn:aws:iam::aws:policy/AmazonSSMManagedInstanceCore"

const assumeRoleDocument = `{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"Service": "ec2.amazonaws.com"},
      "Action": "sts:AssumeRole"
    }
  ]
}`

type Identity struct {
	RoleName         string
	AssumeRolePolicy string
	ManagedPolicyARN string
	Tags             map[string]string
}

type InstanceProfileBinding struct {
	ProfileName string
	RoleName    string
}

// Plan is what the provisioning collaborator applies. Create is false
// for supplied identities: the caller already granted capability and
// owns the resource.
type Plan struct {
	Identity Identity
	Binding  InstanceProfileBinding
	Create   bool
}

// Provisioner applies an identity plan against the platform. The
// resolver itself never performs I/O.
type Provisioner interface {
	ApplyPlan(ctx context.Context, plan Plan) error
}

// Resolve returns the identity and instance-profile binding for a
// resolved runner group. Names derive deterministically from the group
// name, so re-resolving the same configuration yields the same plan.
func Resolve(config fleet.RunnerConfig, naming fleet.Naming, supplied *fleet.IdentitySpec) (Identity, InstanceProfileBinding, Plan) {
	if supplied != nil {
		id := Identity{RoleName: supplied.RoleName}
		binding := InstanceProfileBinding{
			ProfileName: supplied.InstanceProfile,
			RoleName:    supplied.RoleName,
		}
		if binding.ProfileName == "" {
			binding.ProfileName = supplied.RoleName
		}
		return id, binding, Plan{Identity: id, Binding: binding, Create: false}
	}

	roleName := fmt.Sprintf("%s-%s-runner", naming.Stack, config.Name)
	id := Identity{
		RoleName:         roleName,
		AssumeRolePolicy: assumeRoleDocument,
		ManagedPolicyARN: BaselinePolicyARN,
		Tags: map[string]string{
			"runner-group": config.Name,
			"stack":        naming.Stack,
		},
	}
	binding := InstanceProfileBinding{
		ProfileName: roleName,
		RoleName:    roleName,
	}
	return id, binding, Plan{Identity: id, Binding: binding, Create: true}
}
