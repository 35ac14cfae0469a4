package fleet

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/meridianops/runnerfleet/pkg/utils/defaults"
	"github.com/meridianops/runnerfleet/pkg/utils/tomltypes"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// Config is the root of a fleet declaration file. It carries the
// process-wide naming context and one GroupSpec per runner group.
type Config struct {
	Stack     string      `toml:"stack" validate:"required"`
	Region    string      `toml:"region" validate:"required"`
	GitLabURL string      `toml:"gitlabURL" validate:"required,url"`
	Groups    []GroupSpec `toml:"groups" validate:"required,min=1,dive"`
}

// GroupSpec is the user-declared, partially-specified configuration of
// one runner group. Unset fields are filled by the default resolver.
type GroupSpec struct {
	Name           *string `toml:"name,omitempty"`
	Token          *string `toml:"token,omitempty" validate:"excluded_with=TokenSecretRef"`
	TokenSecretRef *string `toml:"tokenSecretRef,omitempty"`
	Executor       *string `toml:"executor,omitempty" validate:"omitempty,oneof=docker+machine shell"`

	Docker  DockerSpec  `toml:"docker,omitempty"`
	Machine MachineSpec `toml:"machine,omitempty"`
	Cache   CacheSpec   `toml:"cache,omitempty"`
	Idle    IdleSpec    `toml:"idle,omitempty"`
	OffPeak OffPeakSpec `toml:"offPeak,omitempty"`

	CheckInterval *tomltypes.Duration `toml:"checkInterval,omitempty" validate:"omitempty,min=0"`
	MaxBuilds     *int                `toml:"maxBuilds,omitempty" validate:"omitempty,min=0"`
	Concurrent    *int                `toml:"concurrent,omitempty" validate:"omitempty,min=0"`

	Environment []string `toml:"environment,omitempty"`

	// KeyPair references externally-managed key pair material. When set,
	// the machine options must carry a matching keypairName.
	KeyPair  *string       `toml:"keyPair,omitempty"`
	Identity *IdentitySpec `toml:"identity,omitempty"`
}

type DockerSpec struct {
	Image        *string  `toml:"image,omitempty"`
	Privileged   *bool    `toml:"privileged,omitempty"`
	DisableCache *bool    `toml:"disableCache,omitempty"`
	TLSVerify    *bool    `toml:"tlsVerify,omitempty"`
	Volumes      []string `toml:"volumes,omitempty"`
}

type MachineSpec struct {
	InstanceType  *string  `toml:"instanceType,omitempty"`
	Image         *string  `toml:"image,omitempty"`
	VpcID         *string  `toml:"vpcID,omitempty"`
	SubnetID      *string  `toml:"subnetID,omitempty"`
	Zone          *string  `toml:"zone,omitempty"`
	SecurityGroup *string  `toml:"securityGroup,omitempty"`
	PrivateOnly   *bool    `toml:"privateOnly,omitempty"`
	SpotInstance  *bool    `toml:"spotInstance,omitempty"`
	SpotPrice     *float64 `toml:"spotPrice,omitempty" validate:"omitempty,gt=0"`
	KeypairName   *string  `toml:"keypairName,omitempty"`
}

type CacheSpec struct {
	Bucket         *string `toml:"bucket,omitempty"`
	Location       *string `toml:"location,omitempty"`
	Shared         *bool   `toml:"shared,omitempty"`
	ExpirationDays *int    `toml:"expirationDays,omitempty" validate:"omitempty,min=0"`
}

type IdleSpec struct {
	Count *int                `toml:"count,omitempty" validate:"omitempty,min=0"`
	Time  *tomltypes.Duration `toml:"time,omitempty" validate:"omitempty,min=0"`
}

type OffPeakSpec struct {
	Timezone  *string             `toml:"timezone,omitempty"`
	IdleCount *int                `toml:"idleCount,omitempty" validate:"omitempty,min=0"`
	IdleTime  *tomltypes.Duration `toml:"idleTime,omitempty" validate:"omitempty,min=0"`
}

// IdentitySpec names an externally-managed execution identity. When
// present, the identity resolver uses it as-is instead of synthesizing
// a fresh role.
type IdentitySpec struct {
	RoleName        string `toml:"roleName" validate:"required"`
	InstanceProfile string `toml:"instanceProfile,omitempty"`
}

func (c *Config) Naming() Naming {
	return Naming{Stack: c.Stack, Region: c.Region}
}

func (s GroupSpec) GetToken() string {
	return defaults.Value(s.Token, "")
}

func (s GroupSpec) GetTokenSecretRef() string {
	return defaults.Value(s.TokenSecretRef, "")
}

func LoadFile(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode fleet file: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the structural constraints of a fleet declaration.
// Cross-field rules between resolved values are the validate package's
// concern, not this one.
func Validate(config *Config) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(tomltypes.Duration); ok {
			return d.Duration
		}
		return nil
	}, tomltypes.Duration{})

	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid fleet file: %w", err)
	}

	// Group names are directory and resource names downstream; two
	// groups sharing one would silently shadow each other's artifacts.
	names := lo.FilterMap(config.Groups, func(g GroupSpec, _ int) (string, bool) {
		name := defaults.Value(g.Name, "")
		return name, name != ""
	})
	if dups := lo.FindDuplicates(names); len(dups) > 0 {
		return fmt.Errorf("invalid fleet file: group name %q is declared more than once", dups[0])
	}
	return nil
}
