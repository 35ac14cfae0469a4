// Package resolve fills every optional field of a runner group
// declaration with a computed or static default. Resolution is total:
// it never fails and never mutates its input. Anything that can be
// wrong with a configuration is the validate package's concern.
package resolve

import (
	"context"
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/meridianops/runnerfleet/pkg/fleet"
	"github.com/meridianops/runnerfleet/pkg/utils/defaults"

	"go.uber.org/zap"
)

const (
	DefaultExecutor     = "docker+machine"
	DefaultInstanceType = "m5.large"
	DefaultDockerImage  = "alpine:3.18"

	DefaultIdleCount = 1
	DefaultIdleTime  = 30 * time.Minute

	DefaultOffPeakTimezone  = "UTC"
	DefaultOffPeakIdleCount = 0
	DefaultOffPeakIdleTime  = 20 * time.Minute

	DefaultCheckInterval = 3 * time.Second
	DefaultMaxBuilds     = 20
	DefaultConcurrent    = 10

	// FallbackMachineImage is used when the image source cannot answer;
	// resolution must succeed regardless.
	FallbackMachineImage = "ami-0caef02b518350c8b"
)

type Resolver struct {
	logger  *zap.Logger
	url     string
	clock   Clock
	entropy io.Reader
	images  ImageSource

	imageOnce sync.Once
	imageID   string
}

func NewResolver(logger *zap.Logger, url string, clock Clock, entropy io.Reader, images ImageSource) *Resolver {
	if clock == nil {
		clock = RealClock{}
	}
	if entropy == nil {
		entropy = rand.Reader
	}
	if images == nil {
		images = StaticImageSource{ID: FallbackMachineImage}
	}
	return &Resolver{
		logger:  logger.Named("resolve"),
		url:     url,
		clock:   clock,
		entropy: entropy,
		images:  images,
	}
}

// Resolve produces a fully-populated RunnerConfig from a partial group
// declaration. Every output field is set; the only non-deterministic
// step is name generation, which runs only when the name is absent.
func (r *Resolver) Resolve(ctx context.Context, spec fleet.GroupSpec) fleet.RunnerConfig {
	name := defaults.Value(spec.Name, "")
	if name == "" {
		name = GenerateName(r.clock, r.entropy)
		r.logger.Debug("generated runner group name", zap.String("name", name))
	}

	return fleet.RunnerConfig{
		Name:           name,
		URL:            r.url,
		Token:          spec.GetToken(),
		TokenSecretRef: spec.GetTokenSecretRef(),
		Executor:       defaults.Value(spec.Executor, DefaultExecutor),

		Docker: fleet.DockerConfig{
			Image:        defaults.Value(spec.Docker.Image, DefaultDockerImage),
			Privileged:   defaults.Value(spec.Docker.Privileged, true),
			DisableCache: defaults.Value(spec.Docker.DisableCache, true),
			TLSVerify:    defaults.Value(spec.Docker.TLSVerify, false),
			Volumes:      append([]string(nil), spec.Docker.Volumes...),
		},

		Machine: fleet.MachineConfig{
			InstanceType:  defaults.Value(spec.Machine.InstanceType, DefaultInstanceType),
			Image:         r.machineImage(ctx, spec.Machine.Image),
			VpcID:         defaults.Value(spec.Machine.VpcID, ""),
			SubnetID:      defaults.Value(spec.Machine.SubnetID, ""),
			Zone:          defaults.Value(spec.Machine.Zone, ""),
			SecurityGroup: defaults.Value(spec.Machine.SecurityGroup, ""),
			PrivateOnly:   defaults.Value(spec.Machine.PrivateOnly, true),
			SpotInstance:  defaults.Value(spec.Machine.SpotInstance, false),
			SpotPrice:     spec.Machine.SpotPrice,
			KeypairName:   defaults.Value(spec.Machine.KeypairName, ""),
		},

		Cache: fleet.CacheConfig{
			Bucket:         defaults.Value(spec.Cache.Bucket, ""),
			Location:       defaults.Value(spec.Cache.Location, ""),
			Shared:         defaults.Value(spec.Cache.Shared, true),
			ExpirationDays: defaults.Value(spec.Cache.ExpirationDays, 0),
		},

		Idle: fleet.IdlePolicy{
			Count: defaults.Value(spec.Idle.Count, DefaultIdleCount),
			Time:  seconds(spec.Idle.Time.Seconds(), DefaultIdleTime),
		},

		OffPeak: fleet.OffPeakPolicy{
			Timezone:  defaults.Value(spec.OffPeak.Timezone, DefaultOffPeakTimezone),
			IdleCount: defaults.Value(spec.OffPeak.IdleCount, DefaultOffPeakIdleCount),
			IdleTime:  seconds(spec.OffPeak.IdleTime.Seconds(), DefaultOffPeakIdleTime),
		},

		CheckInterval: seconds(spec.CheckInterval.Seconds(), DefaultCheckInterval),
		MaxBuilds:     defaults.Value(spec.MaxBuilds, DefaultMaxBuilds),
		Concurrent:    defaults.Value(spec.Concurrent, DefaultConcurrent),

		Environment: append([]string(nil), spec.Environment...),

		KeyPair: defaults.Value(spec.KeyPair, ""),
	}
}

// machineImage resolves the default machine image. The source is
// consulted once per resolver, so every group of a run shares the same
// default image even when new images land mid-run.
func (r *Resolver) machineImage(ctx context.Context, explicit *string) string {
	if explicit != nil && *explicit != "" {
		return *explicit
	}
	r.imageOnce.Do(func() {
		image, err := r.images.LatestImage(ctx)
		if err != nil || image == "" {
			r.logger.Warn("machine image lookup failed, using fallback", zap.Error(err))
			image = FallbackMachineImage
		}
		r.imageID = image
	})
	return r.imageID
}

func seconds(value *int, def time.Duration) int {
	return defaults.Value(value, int(def/time.Second))
}
