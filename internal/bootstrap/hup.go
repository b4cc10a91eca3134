package bootstrap

import (
	"strconv"
	"strings"

	"github.com/specialistvlad/cfize/internal/cferr"
)

const (
	hupConfigSet = "cfn_hup"

	credentialsPath = "/etc/cfn/cfn-credentials"
	hupConfPath     = "/etc/cfn/cfn-hup.conf"
	reloadHookPath  = "/etc/cfn/hooks.d/cfn-init-reload.conf"
)

// hup registers the cfn_hup config set and its section: optional
// credentials, the cfn-hup main config and a reload hook that re-runs
// cfn-init when this resource's metadata changes.
func (b *Builder) hup(opts SetupOptions) error {
	if len(opts.HupConfigSets) == 0 {
		return cferr.Configuration(OptHupConfigSet, "must specify a config set")
	}
	name := b.resource.Name()

	interval, err := intervalValue(opts.Interval)
	if err != nil {
		return err
	}
	if isBlank(interval) {
		interval = defaultHupInterval
	}

	credentials, err := b.credentials(opts)
	if err != nil {
		return err
	}
	mainConf, err := b.surface.Join("", []any{
		"[main]\n",
		"stack=", b.surface.StackName(), "\n",
		"region=", b.surface.Region(), "\n",
		"interval=", interval, "\n",
	})
	if err != nil {
		return cferr.Evaluation(err, "assembling %s", hupConfPath)
	}
	hook, err := b.surface.Join("", []any{
		"[cfn-auto-reloader-hook]\n",
		"triggers=post.update\n",
		"path=Resources.", name, ".Metadata\n",
		"action=", cfnInitBin,
		" -c '", strings.Join(opts.HupConfigSets, ","), "'",
		" -s ", b.surface.StackName(),
		" --region ", b.surface.Region(),
		" -r ", name,
		"\n",
		"runas=root\n",
	})
	if err != nil {
		return cferr.Evaluation(err, "assembling %s", reloadHookPath)
	}

	b.InitConfigSet(hupConfigSet, hupConfigSet)
	return b.InitConfig(hupConfigSet, func(s *Section) error {
		if credentials != nil {
			s.File(credentialsPath, rootOnly(credentials))
		}
		s.File(hupConfPath, rootOnly(mainConf))
		s.File(reloadHookPath, map[string]any{"content": hook})
		return nil
	})
}

// credentials returns the credentials file content, or nil unless both keys
// are present.
func (b *Builder) credentials(opts SetupOptions) (any, error) {
	if isBlank(opts.AccessKey) || isBlank(opts.SecretKey) {
		return nil, nil
	}
	content, err := b.surface.Join("", []any{
		"AWSAccessKeyId=", opts.AccessKey, "\n",
		"AWSSecretKey=", opts.SecretKey, "\n",
	})
	if err != nil {
		return nil, cferr.Evaluation(err, "assembling %s", credentialsPath)
	}
	return content, nil
}

func rootOnly(content any) map[string]any {
	return map[string]any{
		"content": content,
		"mode":    "000400",
		"owner":   "root",
		"group":   "root",
	}
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// intervalValue normalizes the cfn-hup interval. Whole numbers become
// strings; strings and intrinsics pass through to the surface join.
func intervalValue(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	case nil, string, map[string]any:
		return v, nil
	default:
		return nil, cferr.Configuration(OptInterval, "must be a whole number of minutes, a string or an intrinsic, got %v", v)
	}
}
