// Package compile ties the resolution pipeline together: defaults,
// identity, token sources, cross-field validation, artifact generation.
// Runner groups compile independently; one group's defect never aborts
// its siblings.
package compile

import (
	"context"
	"fmt"

	"github.com/meridianops/runnerfleet/pkg/fleet"
	"github.com/meridianops/runnerfleet/pkg/fleet/generate"
	"github.com/meridianops/runnerfleet/pkg/fleet/identity"
	"github.com/meridianops/runnerfleet/pkg/fleet/resolve"
	"github.com/meridianops/runnerfleet/pkg/fleet/validate"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SecretSource resolves an indirect token reference to its value. The
// AWS collaborator implements it; offline compilation runs without one.
type SecretSource interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

type Compiler struct {
	logger   *zap.Logger
	resolver *resolve.Resolver
	secrets  SecretSource
}

func NewCompiler(logger *zap.Logger, resolver *resolve.Resolver, secrets SecretSource) *Compiler {
	return &Compiler{
		logger:   logger.Named("compile"),
		resolver: resolver,
		secrets:  secrets,
	}
}

// GroupResult is the outcome for one runner group. Err is set for
// resolution defects and generation refusals; Diagnostics carry the
// validator findings either way.
type GroupResult struct {
	Name        string
	Config      fleet.RunnerConfig
	Identity    identity.Identity
	Binding     identity.InstanceProfileBinding
	Plan        identity.Plan
	Diagnostics []validate.Diagnostic
	Artifacts   *generate.Artifacts
	Err         error
}

type Result struct {
	Groups []GroupResult
}

func (r *Result) Failed() bool {
	return lo.SomeBy(r.Groups, func(g GroupResult) bool { return g.Err != nil })
}

// Compile resolves and generates every group in the fleet declaration.
// Groups run concurrently; per-group failures land in GroupResult.Err.
func (c *Compiler) Compile(ctx context.Context, config *fleet.Config) *Result {
	naming := config.Naming()
	results := make([]GroupResult, len(config.Groups))

	g, ctx := errgroup.WithContext(ctx)
	for i, spec := range config.Groups {
		i, spec := i, spec
		g.Go(func() error {
			results[i] = c.compileGroup(ctx, naming, spec)
			return nil
		})
	}
	// Group goroutines report defects through GroupResult.Err, never
	// through the errgroup, so siblings always run to completion.
	_ = g.Wait()

	return &Result{Groups: results}
}

func (c *Compiler) compileGroup(ctx context.Context, naming fleet.Naming, spec fleet.GroupSpec) GroupResult {
	config := c.resolver.Resolve(ctx, spec)
	result := GroupResult{Name: config.Name}

	if config.Token == "" && config.TokenSecretRef != "" {
		token, err := c.resolveSecret(ctx, config.TokenSecretRef)
		if err != nil {
			result.Err = fmt.Errorf("failed to resolve token for group %s: %w", config.Name, err)
			return result
		}
		config.Token = token
	}
	result.Config = config

	result.Identity, result.Binding, result.Plan = identity.Resolve(config, naming, spec.Identity)

	result.Diagnostics = validate.Validate(config)
	for _, d := range result.Diagnostics {
		c.logger.Warn("configuration diagnostic",
			zap.String("group", config.Name),
			zap.String("severity", string(d.Severity)),
			zap.String("message", d.Message),
		)
	}

	artifacts, err := generate.Generate(generate.Input{
		Config:      config,
		Naming:      naming,
		Binding:     result.Binding,
		Diagnostics: result.Diagnostics,
	})
	if err != nil {
		result.Err = err
		return result
	}
	result.Artifacts = artifacts

	return result
}

func (c *Compiler) resolveSecret(ctx context.Context, ref string) (string, error) {
	if c.secrets == nil {
		return "", fmt.Errorf("no secret source configured for reference %s", ref)
	}
	return c.secrets.Resolve(ctx, ref)
}
