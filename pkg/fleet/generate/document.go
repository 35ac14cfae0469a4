package generate

import (
	"fmt"

	"github.com/meridianops/runnerfleet/pkg/fleet"
	"github.com/meridianops/runnerfleet/pkg/fleet/identity"

	"github.com/samber/lo"
)

// Document mirrors the sectioned key=value file the runner-manager
// process reads at boot. Numeric fields deliberately carry no omitzero:
// an explicit zero must render literally.
type Document struct {
	Concurrent    int            `toml:"concurrent"`
	CheckInterval int            `toml:"check_interval"`
	Runners       []RunnersBlock `toml:"runners"`
}

type RunnersBlock struct {
	Name        string        `toml:"name"`
	URL         string        `toml:"url"`
	Token       string        `toml:"token"`
	Executor    string        `toml:"executor"`
	Limit       int           `toml:"limit"`
	Environment []string      `toml:"environment,omitempty"`
	Docker      *DockerBlock  `toml:"docker,omitempty"`
	Cache       *CacheBlock   `toml:"cache,omitempty"`
	Machine     *MachineBlock `toml:"machine,omitempty"`
}

type DockerBlock struct {
	TLSVerify    bool     `toml:"tls_verify"`
	Image        string   `toml:"image"`
	Privileged   bool     `toml:"privileged"`
	DisableCache bool     `toml:"disable_cache"`
	Volumes      []string `toml:"volumes,omitempty"`
}

type CacheBlock struct {
	Type   string   `toml:"Type"`
	Shared bool     `toml:"Shared"`
	S3     *S3Block `toml:"s3,omitempty"`
}

type S3Block struct {
	ServerAddress  string `toml:"ServerAddress"`
	BucketName     string `toml:"BucketName"`
	BucketLocation string `toml:"BucketLocation"`
}

type MachineBlock struct {
	IdleCount        int      `toml:"IdleCount"`
	IdleTime         int      `toml:"IdleTime"`
	MaxBuilds        int      `toml:"MaxBuilds"`
	MachineDriver    string   `toml:"MachineDriver"`
	MachineName      string   `toml:"MachineName"`
	MachineOptions   []string `toml:"MachineOptions"`
	OffPeakPeriods   []string `toml:"OffPeakPeriods"`
	OffPeakTimezone  string   `toml:"OffPeakTimezone"`
	OffPeakIdleCount int      `toml:"OffPeakIdleCount"`
	OffPeakIdleTime  int      `toml:"OffPeakIdleTime"`
}

// offPeakPeriods is a fixed policy of the generator: weekday off-hours
// plus all-day weekend. Only the idle counts and durations applied
// during these windows are user-configurable.
var offPeakPeriods = []string{
	"* * 0-8,18-23 * * mon-fri *",
	"* * * * * sat,sun *",
}

const machineDriver = "amazonec2"

type machineOption struct {
	key   string
	value string
}

// machineOptions assembles the driver option list. Conditional
// directives (spot, key pair) are appended as whole entries or not at
// all; an option never renders with an empty placeholder value.
func machineOptions(config fleet.RunnerConfig, naming fleet.Naming, binding identity.InstanceProfileBinding) []string {
	m := config.Machine
	options := []machineOption{
		{"amazonec2-ami", m.Image},
		{"amazonec2-instance-type", m.InstanceType},
		{"amazonec2-region", naming.Region},
		{"amazonec2-vpc-id", m.VpcID},
		{"amazonec2-subnet-id", m.SubnetID},
		{"amazonec2-zone", m.Zone},
		{"amazonec2-security-group", m.SecurityGroup},
		{"amazonec2-use-private-address", fmt.Sprintf("%t", m.PrivateOnly)},
		{"amazonec2-iam-instance-profile", binding.ProfileName},
	}

	if m.SpotInstance && m.SpotPrice != nil {
		options = append(options,
			machineOption{"amazonec2-request-spot-instance", "true"},
			machineOption{"amazonec2-spot-price", fmt.Sprintf("%g", *m.SpotPrice)},
		)
	}
	if m.KeypairName != "" {
		options = append(options, machineOption{"amazonec2-keypair-name", m.KeypairName})
	}

	rendered := lo.FilterMap(options, func(o machineOption, _ int) (string, bool) {
		if o.value == "" {
			return "", false
		}
		return o.key + "=" + o.value, true
	})
	return lo.Uniq(rendered)
}

func document(config fleet.RunnerConfig, naming fleet.Naming, binding identity.InstanceProfileBinding) Document {
	runner := RunnersBlock{
		Name:        config.Name,
		URL:         config.URL,
		Token:       config.Token,
		Executor:    config.Executor,
		Limit:       config.MaxBuilds,
		Environment: lo.Uniq(config.Environment),
	}

	if config.Executor == "docker+machine" {
		runner.Docker = &DockerBlock{
			TLSVerify:    config.Docker.TLSVerify,
			Image:        config.Docker.Image,
			Privileged:   config.Docker.Privileged,
			DisableCache: config.Docker.DisableCache,
			Volumes:      config.Docker.Volumes,
		}
		runner.Machine = &MachineBlock{
			IdleCount:        config.Idle.Count,
			IdleTime:         config.Idle.Time,
			MaxBuilds:        config.MaxBuilds,
			MachineDriver:    machineDriver,
			MachineName:      fmt.Sprintf("%s-machine-%%s", config.Name),
			MachineOptions:   machineOptions(config, naming, binding),
			OffPeakPeriods:   offPeakPeriods,
			OffPeakTimezone:  config.OffPeak.Timezone,
			OffPeakIdleCount: config.OffPeak.IdleCount,
			OffPeakIdleTime:  config.OffPeak.IdleTime,
		}
	}

	if config.Cache.Bucket != "" {
		runner.Cache = &CacheBlock{
			Type:   "s3",
			Shared: config.Cache.Shared,
			S3: &S3Block{
				ServerAddress:  "s3.amazonaws.com",
				BucketName:     config.Cache.Bucket,
				BucketLocation: lo.Ternary(config.Cache.Location != "", config.Cache.Location, naming.Region),
			},
		}
	}

	return Document{
		Concurrent:    config.Concurrent,
		CheckInterval: config.CheckInterval,
		Runners:       []RunnersBlock{runner},
	}
}
