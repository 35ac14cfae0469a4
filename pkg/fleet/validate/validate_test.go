package validate

import (
	"testing"

	"github.com/meridianops/runnerfleet/pkg/fleet"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr[T any](v T) *T { return &v }

func validConfig() fleet.RunnerConfig {
	return fleet.RunnerConfig{
		Name:     "builders",
		URL:      "https://gitlab.example.com",
		Token:    "abc",
		Executor: "docker+machine",
		Machine: fleet.MachineConfig{
			InstanceType: "m5.large",
			Image:        "ami-123",
		},
		Idle:    fleet.IdlePolicy{Count: 2, Time: 1800},
		OffPeak: fleet.OffPeakPolicy{Timezone: "UTC", IdleCount: 0, IdleTime: 1200},
	}
}

func messages(diagnostics []Diagnostic, severity Severity) []string {
	var out []string
	for _, d := range diagnostics {
		if d.Severity == severity {
			out = append(out, d.Message)
		}
	}
	return out
}

func TestValidate(t *testing.T) {
	Convey("When validating a resolved configuration, the validator", t, func() {
		Convey("accepts a well-formed configuration", func() {
			So(Validate(validConfig()), ShouldBeEmpty)
		})

		Convey("flags a key pair without a matching machine option", func() {
			config := validConfig()
			config.KeyPair = "ci-keys"

			diagnostics := Validate(config)
			So(HasErrors(diagnostics), ShouldBeTrue)
			So(messages(diagnostics, SeverityError), ShouldContain,
				"key pair configured without matching machine option")
		})

		Convey("warns when the machine option names a different key pair", func() {
			config := validConfig()
			config.KeyPair = "ci-keys"
			config.Machine.KeypairName = "other-keys"

			diagnostics := Validate(config)
			So(HasErrors(diagnostics), ShouldBeFalse)
			So(messages(diagnostics, SeverityWarning), ShouldHaveLength, 1)
		})

		Convey("flags spot instances without a price", func() {
			config := validConfig()
			config.Machine.SpotInstance = true

			diagnostics := Validate(config)
			So(messages(diagnostics, SeverityError), ShouldContain,
				"spot instances enabled without a spot price")
		})

		Convey("accepts spot instances with a price", func() {
			config := validConfig()
			config.Machine.SpotInstance = true
			config.Machine.SpotPrice = ptr(0.4)

			So(Validate(config), ShouldBeEmpty)
		})

		Convey("warns about an unused spot price", func() {
			config := validConfig()
			config.Machine.SpotPrice = ptr(0.4)

			diagnostics := Validate(config)
			So(HasErrors(diagnostics), ShouldBeFalse)
			So(messages(diagnostics, SeverityWarning), ShouldContain,
				"spot price is set but spot instances are disabled")
		})

		Convey("flags an unresolved token", func() {
			config := validConfig()
			config.Token = ""

			diagnostics := Validate(config)
			So(messages(diagnostics, SeverityError), ShouldContain,
				"runner token is empty after resolving every source")
		})

		Convey("warns when the off-peak idle count exceeds the regular one", func() {
			config := validConfig()
			config.OffPeak.IdleCount = 5

			diagnostics := Validate(config)
			So(HasErrors(diagnostics), ShouldBeFalse)
			So(messages(diagnostics, SeverityWarning), ShouldHaveLength, 1)
		})

		Convey("reports every independent problem in one pass", func() {
			config := validConfig()
			config.Token = ""
			config.KeyPair = "ci-keys"
			config.Machine.SpotInstance = true

			diagnostics := Validate(config)
			So(messages(diagnostics, SeverityError), ShouldHaveLength, 3)
		})
	})
}
