package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meridianops/runnerfleet/pkg/fleet"
	"github.com/meridianops/runnerfleet/pkg/fleet/compile"
	"github.com/meridianops/runnerfleet/pkg/fleet/resolve"
	"github.com/meridianops/runnerfleet/pkg/provision/awscloud"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func run(ctx context.Context, logger *zap.Logger) error {
	config, err := fleet.LoadFile(configPath)
	if err != nil {
		return err
	}

	var (
		images  resolve.ImageSource
		secrets compile.SecretSource
		cloud   *awscloud.Client
	)
	if apply {
		cloud, err = awscloud.New(logger, config.Region, rate.Limit(awsRPS), awsBurst)
		if err != nil {
			return fmt.Errorf("cannot setup AWS client: %w", err)
		}
		images = cloud
		secrets = cloud
	}

	resolver := resolve.NewResolver(logger, config.GitLabURL, nil, nil, images)
	compiler := compile.NewCompiler(logger, resolver, secrets)

	result := compiler.Compile(ctx, config)

	for _, group := range result.Groups {
		if group.Err != nil {
			logger.Error("group failed", zap.String("group", group.Name), zap.Error(group.Err))
			continue
		}

		if err := writeArtifacts(group); err != nil {
			return err
		}
		logger.Info("generated artifacts",
			zap.String("group", group.Name),
			zap.String("dir", filepath.Join(outputDir, group.Name)),
		)

		if cloud == nil {
			continue
		}
		if err := cloud.ApplyPlan(ctx, group.Plan); err != nil {
			return err
		}
		if err := cloud.ApplyCacheLifecycle(ctx, group.Config.Cache); err != nil {
			return err
		}
	}

	if result.Failed() {
		return fmt.Errorf("one or more runner groups failed to compile")
	}
	return nil
}

func writeArtifacts(group compile.GroupResult) error {
	dir := filepath.Join(outputDir, group.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	files := map[string]string{
		"config.toml":                  group.Artifacts.ConfigTOML,
		"cloud-init.yaml":              group.Artifacts.CloudInit,
		"gitlab-runner-reload.path":    group.Artifacts.ReloadPath,
		"gitlab-runner-reload.service": group.Artifacts.ReloadService,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}
