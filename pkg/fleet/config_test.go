package fleet

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const fleetFile = `
stack = "prod"
region = "us-east-1"
gitlabURL = "https://gitlab.example.com"

[[groups]]
name = "builders"
token = "abc"
executor = "docker+machine"
checkInterval = "10s"

  [groups.machine]
  instanceType = "c5.xlarge"
  subnetID = "subnet-1"
  spotInstance = true
  spotPrice = 0.4

  [groups.idle]
  count = 3
  time = "45m"

[[groups]]
tokenSecretRef = "ci/runner-token"
`

func writeFleetFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fleet.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	Convey("When loading a fleet declaration file", t, func() {
		Convey("a well-formed file decodes with its optional fields intact", func() {
			config, err := LoadFile(writeFleetFile(t, fleetFile))
			So(err, ShouldBeNil)
			So(config.Stack, ShouldEqual, "prod")
			So(config.Groups, ShouldHaveLength, 2)

			builders := config.Groups[0]
			So(*builders.Name, ShouldEqual, "builders")
			So(*builders.Machine.InstanceType, ShouldEqual, "c5.xlarge")
			So(*builders.Machine.SpotPrice, ShouldEqual, 0.4)
			So(builders.Idle.Time.Duration.Minutes(), ShouldEqual, 45)
			So(builders.MaxBuilds, ShouldBeNil)

			unnamed := config.Groups[1]
			So(unnamed.Name, ShouldBeNil)
			So(*unnamed.TokenSecretRef, ShouldEqual, "ci/runner-token")
		})

		Convey("a file without any group is rejected", func() {
			_, err := LoadFile(writeFleetFile(t, `
stack = "prod"
region = "us-east-1"
gitlabURL = "https://gitlab.example.com"
`))
			So(err, ShouldNotBeNil)
		})

		Convey("a malformed URL is rejected", func() {
			_, err := LoadFile(writeFleetFile(t, `
stack = "prod"
region = "us-east-1"
gitlabURL = "not-a-url"

[[groups]]
name = "builders"
`))
			So(err, ShouldNotBeNil)
		})

		Convey("declaring both token sources is rejected", func() {
			_, err := LoadFile(writeFleetFile(t, `
stack = "prod"
region = "us-east-1"
gitlabURL = "https://gitlab.example.com"

[[groups]]
name = "builders"
token = "abc"
tokenSecretRef = "ci/runner-token"
`))
			So(err, ShouldNotBeNil)
		})

		Convey("a negative tuning knob is rejected", func() {
			_, err := LoadFile(writeFleetFile(t, `
stack = "prod"
region = "us-east-1"
gitlabURL = "https://gitlab.example.com"

[[groups]]
name = "builders"
maxBuilds = -1
`))
			So(err, ShouldNotBeNil)
		})

		Convey("a negative duration is rejected", func() {
			_, err := LoadFile(writeFleetFile(t, `
stack = "prod"
region = "us-east-1"
gitlabURL = "https://gitlab.example.com"

[[groups]]
name = "builders"
checkInterval = "-10s"
`))
			So(err, ShouldNotBeNil)

			_, err = LoadFile(writeFleetFile(t, `
stack = "prod"
region = "us-east-1"
gitlabURL = "https://gitlab.example.com"

[[groups]]
name = "builders"

  [groups.idle]
  time = "-45m"
`))
			So(err, ShouldNotBeNil)
		})

		Convey("two groups sharing a name are rejected", func() {
			_, err := LoadFile(writeFleetFile(t, `
stack = "prod"
region = "us-east-1"
gitlabURL = "https://gitlab.example.com"

[[groups]]
name = "builders"
token = "abc"

[[groups]]
name = "builders"
token = "def"
`))
			So(err, ShouldNotBeNil)
		})
	})
}
