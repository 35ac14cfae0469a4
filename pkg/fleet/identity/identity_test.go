package identity

import (
	"testing"

	"github.com/meridianops/runnerfleet/pkg/fleet"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolve(t *testing.T) {
	naming := fleet.Naming{Stack: "prod", Region: "us-east-1"}
	config := fleet.RunnerConfig{Name: "builders"}

	Convey("When resolving an identity, the resolver", t, func() {
		Convey("uses a supplied identity as-is", func() {
			supplied := &fleet.IdentitySpec{RoleName: "shared-runner-role", InstanceProfile: "shared-profile"}
			id, binding, plan := Resolve(config, naming, supplied)

			So(id.RoleName, ShouldEqual, "shared-runner-role")
			So(binding.ProfileName, ShouldEqual, "shared-profile")
			So(plan.Create, ShouldBeFalse)
		})

		Convey("derives the profile name from a supplied role when omitted", func() {
			supplied := &fleet.IdentitySpec{RoleName: "shared-runner-role"}
			_, binding, _ := Resolve(config, naming, supplied)

			So(binding.ProfileName, ShouldEqual, "shared-runner-role")
		})

		Convey("synthesizes a fresh identity scoped to the group", func() {
			id, binding, plan := Resolve(config, naming, nil)

			So(id.RoleName, ShouldEqual, "prod-builders-runner")
			So(id.ManagedPolicyARN, ShouldEqual, BaselinePolicyARN)
			So(id.AssumeRolePolicy, ShouldContainSubstring, "ec2.amazonaws.com")
			So(id.Tags["runner-group"], ShouldEqual, "builders")
			So(binding.ProfileName, ShouldEqual, id.RoleName)
			So(binding.RoleName, ShouldEqual, id.RoleName)
			So(plan.Create, ShouldBeTrue)
		})

		Convey("is deterministic across re-resolution", func() {
			firstID, firstBinding, _ := Resolve(config, naming, nil)
			secondID, secondBinding, _ := Resolve(config, naming, nil)

			So(secondID, ShouldResemble, firstID)
			So(secondBinding, ShouldResemble, firstBinding)
		})
	})
}
