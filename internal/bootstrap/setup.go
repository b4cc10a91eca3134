package bootstrap

import (
	"context"
	"strings"

	"github.com/specialistvlad/cfize/internal/cferr"
	"github.com/specialistvlad/cfize/internal/ctxlog"
)

// Flavor selects the cfn-bootstrap install path.
type Flavor string

const (
	FlavorDefault Flavor = ""
	FlavorRedhat  Flavor = "redhat"
	FlavorCentos  Flavor = "centos"
	FlavorAmazon  Flavor = "amazon"
	FlavorUbuntu  Flavor = "ubuntu"
	FlavorDebian  Flavor = "debian"
)

const (
	cfnInitBin   = "/usr/local/bin/cfn-init"
	cfnHupBin    = "/usr/local/bin/cfn-hup"
	cfnSignalBin = "/usr/local/bin/cfn-signal"

	bootstrapRPM     = "https://s3.amazonaws.com/cloudformation-examples/aws-cfn-bootstrap-latest.amzn1.noarch.rpm"
	bootstrapTarball = "https://s3.amazonaws.com/cloudformation-examples/aws-cfn-bootstrap-latest.tar.gz"
)

// Option keys, as they appear in error messages and directive arguments.
const (
	OptFlavor          = "flavor"
	OptSignal          = "signal"
	OptInitConfigSet   = "cfn_init_config_set"
	OptHupConfigSet    = "cfn_hup_config_set"
	OptAccessKey       = "access_key"
	OptSecretKey       = "secret_key"
	OptInterval        = "interval"
	defaultHupInterval = "1"
)

// SetupOptions drives Setup.
type SetupOptions struct {
	Flavor Flavor
	// Signal is the logical resource name passed to cfn-signal. Empty
	// disables signalling.
	Signal string
	// InitConfigSets are run by cfn-init. Required.
	InitConfigSets []string
	// HupConfigSets, when set, install cfn-hup with a reload hook that
	// re-runs cfn-init with these config sets.
	HupConfigSets []string
	// AccessKey and SecretKey are surface values (strings or intrinsics).
	// The credentials file is written only when both are set.
	AccessKey any
	SecretKey any
	// Interval is the cfn-hup poll interval in minutes, a surface value
	// (string, whole number or intrinsic). Nil means 1.
	Interval any
}

// Setup resets the resource's Init metadata and installs a user-data script
// that bootstraps cfn-init, runs it against opts.InitConfigSets, optionally
// starts cfn-hup and signals the outcome. Any previous user data is
// replaced.
func (b *Builder) Setup(ctx context.Context, opts SetupOptions) error {
	logger := ctxlog.FromContext(ctx).With("resource", b.resource.Name())

	if len(opts.InitConfigSets) == 0 {
		return cferr.Configuration(OptInitConfigSet, "must specify a config set")
	}
	if _, err := intervalValue(opts.Interval); err != nil {
		return err
	}

	b.resetInit()

	script := []any{"#!/bin/bash -xe\n"}
	script = append(script,
		"which cfn-init > /dev/null\n",
		"if [[ $? -ne 0 ]]\n",
		"then\n",
	)
	script = append(script, installLines(ctx, opts.Flavor)...)
	script = append(script, "fi\n")

	script = append(script,
		"# Helper function\n",
		"function error_exit\n",
		"{\n",
	)
	if opts.Signal != "" {
		script = append(script, b.signalLine(false, opts.Signal)...)
	}
	script = append(script,
		"  exit 1\n",
		"}\n",
	)

	script = append(script,
		cfnInitBin,
		" --configsets '", strings.Join(opts.InitConfigSets, ","), "'",
		" --stack ", b.surface.StackName(),
		" --resource ", b.resource.Name(),
		" --region ", b.surface.Region(),
		" || error_exit 'Failed to run cfn-init'\n",
	)

	if len(opts.HupConfigSets) > 0 {
		if err := b.hup(opts); err != nil {
			return err
		}
		script = append(script, cfnHupBin+" || error_exit 'Failed to start cfn-hup'\n")
	}

	if opts.Signal != "" {
		script = append(script, b.signalLine(true, opts.Signal)...)
	}

	joined, err := b.surface.Join("", script)
	if err != nil {
		return cferr.Evaluation(err, "assembling user data script")
	}
	userData, err := b.surface.Base64(joined)
	if err != nil {
		return cferr.Evaluation(err, "encoding user data script")
	}
	b.resource.SetAttribute(UserDataAttribute, userData)

	logger.Debug("User data installed.",
		"flavor", string(opts.Flavor),
		"config_sets", opts.InitConfigSets,
		"cfn_hup", len(opts.HupConfigSets) > 0,
		"signal", opts.Signal != "",
	)
	return nil
}

// installLines returns the commands that install cfn-bootstrap for flavor.
// Unrecognized flavors install nothing.
func installLines(ctx context.Context, flavor Flavor) []any {
	switch flavor {
	case FlavorRedhat, FlavorCentos, FlavorAmazon:
		return []any{
			"rpm -Uvh " + bootstrapRPM + "\n",
		}
	case FlavorUbuntu, FlavorDebian, FlavorDefault:
		return []any{
			"apt-get update --fix-missing\n",
			"apt-get install -y python-pip\n",
			"pip install setuptools\n",
			"easy_install " + bootstrapTarball + "\n",
		}
	default:
		ctxlog.FromContext(ctx).Warn("Unrecognized flavor, no cfn-bootstrap install commands emitted.", "flavor", string(flavor))
		return nil
	}
}

func (b *Builder) signalLine(success bool, resource string) []any {
	status := " -s false"
	indent := "  "
	if success {
		status = " -s true"
		indent = ""
	}
	return []any{
		indent + cfnSignalBin,
		status,
		" --resource '", resource, "'",
		" --stack ", b.surface.StackName(),
		" --region ", b.surface.Region(),
		"\n",
	}
}
