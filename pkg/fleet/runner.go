package fleet

// Naming is the process-wide naming context (stack and region
// identifiers) supplied at the boundary. The identity resolver and the
// artifact generator consult it; nothing else does.
type Naming struct {
	Stack  string
	Region string
}

// RunnerConfig is a fully-resolved runner group configuration. It is
// produced once by the default resolver, is immutable from then on, and
// is consumed exactly once by the artifact generator.
type RunnerConfig struct {
	Name           string
	URL            string
	Token          string
	TokenSecretRef string
	Executor       string

	Docker  DockerConfig
	Machine MachineConfig
	Cache   CacheConfig
	Idle    IdlePolicy
	OffPeak OffPeakPolicy

	CheckInterval int
	MaxBuilds     int
	Concurrent    int

	Environment []string

	KeyPair string
}

type DockerConfig struct {
	Image        string
	Privileged   bool
	DisableCache bool
	TLSVerify    bool
	Volumes      []string
}

type MachineConfig struct {
	InstanceType  string
	Image         string
	VpcID         string
	SubnetID      string
	Zone          string
	SecurityGroup string
	PrivateOnly   bool
	SpotInstance  bool

	// SpotPrice stays a pointer after resolution: the resolver never
	// invents a price, and the validator needs to tell "unset" apart
	// from an explicit value.
	SpotPrice *float64

	KeypairName string
}

type CacheConfig struct {
	Bucket         string
	Location       string
	Shared         bool
	ExpirationDays int
}

// LifecycleEnabled reports whether the cache bucket should carry an
// object-expiry lifecycle rule. A zero day count means objects never
// expire.
func (c CacheConfig) LifecycleEnabled() bool {
	return c.ExpirationDays > 0
}

type IdlePolicy struct {
	Count int
	Time  int
}

type OffPeakPolicy struct {
	Timezone  string
	IdleCount int
	IdleTime  int
}
