package bootstrap

import (
	"context"
	"sort"

	"github.com/specialistvlad/cfize/internal/cferr"
	"github.com/specialistvlad/cfize/internal/surface"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Functions exposes b to directives. Mutating functions evaluate to "" so
// they substitute to nothing in the surrounding text.
//
// cfn_auth, cfn_init_config and cfn_init_setup take their options either as
// one object or as alternating key/value arguments, so they can be called
// from a capture pattern that stops at the first closing brace:
//
//	C{cfn_init_setup("cfn_init_config_set", "default", "signal", "WebServer")}
func Functions(ctx context.Context, b *Builder) map[string]function.Function {
	return map[string]function.Function{
		"cfn_auth": function.New(&function.Spec{
			Description: "Registers an AWS::CloudFormation::Authentication entry.",
			Params: []function.Parameter{
				{Name: "name", Type: cty.String},
			},
			VarParam: &function.Parameter{Name: "options", Type: cty.DynamicPseudoType},
			Type:     function.StaticReturnType(cty.String),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				options, err := optionsArg("options", args[1:])
				if err != nil {
					return cty.NilVal, err
				}
				b.Auth(args[0].AsString(), options)
				return cty.StringVal(""), nil
			},
		}),
		"config_set": function.New(&function.Spec{
			Description: "Returns a {ConfigSet = name} reference.",
			Params: []function.Parameter{
				{Name: "name", Type: cty.String},
			},
			Type: function.StaticReturnType(cty.Object(map[string]cty.Type{"ConfigSet": cty.String})),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				return cty.ObjectVal(map[string]cty.Value{"ConfigSet": args[0]}), nil
			},
		}),
		"cfn_init_config_set": function.New(&function.Spec{
			Description: "Adds sections to a cfn-init config set.",
			Params: []function.Parameter{
				{Name: "name", Type: cty.String},
				{Name: "sections", Type: cty.DynamicPseudoType},
			},
			Type: function.StaticReturnType(cty.String),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				native, err := surface.ToNative(args[1])
				if err != nil {
					return cty.NilVal, err
				}
				sections, ok := native.([]any)
				if !ok {
					return cty.NilVal, cferr.InputType("sections", "must be a list, got %T", native)
				}
				b.InitConfigSet(args[0].AsString(), sections...)
				return cty.StringVal(""), nil
			},
		}),
		"cfn_init_config": function.New(&function.Spec{
			Description: "Registers commands, files and packages in a config section.",
			Params: []function.Parameter{
				{Name: "name", Type: cty.String},
			},
			VarParam: &function.Parameter{Name: "config", Type: cty.DynamicPseudoType},
			Type:     function.StaticReturnType(cty.String),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				config, err := optionsArg("config", args[1:])
				if err != nil {
					return cty.NilVal, err
				}
				if err := b.InitConfig(args[0].AsString(), func(s *Section) error {
					return applySection(s, config)
				}); err != nil {
					return cty.NilVal, err
				}
				return cty.StringVal(""), nil
			},
		}),
		"cfn_init_setup": function.New(&function.Spec{
			Description: "Installs the cfn-init bootstrap user data.",
			Params:      []function.Parameter{},
			VarParam:    &function.Parameter{Name: "options", Type: cty.DynamicPseudoType},
			Type:        function.StaticReturnType(cty.String),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				raw, err := optionsArg("options", args)
				if err != nil {
					return cty.NilVal, err
				}
				opts, err := DecodeSetupOptions(raw)
				if err != nil {
					return cty.NilVal, err
				}
				if err := b.Setup(ctx, opts); err != nil {
					return cty.NilVal, err
				}
				return cty.StringVal(""), nil
			},
		}),
	}
}

// DecodeSetupOptions reads SetupOptions from a loosely typed mapping using
// the option keys (flavor, signal, cfn_init_config_set, ...). Unknown keys
// are rejected so typos do not silently disable a feature.
func DecodeSetupOptions(raw map[string]any) (SetupOptions, error) {
	var opts SetupOptions
	for _, key := range sortedKeys(raw) {
		v := raw[key]
		switch key {
		case OptFlavor:
			s, err := optString(key, v)
			if err != nil {
				return opts, err
			}
			opts.Flavor = Flavor(s)
		case OptSignal:
			s, err := optString(key, v)
			if err != nil {
				return opts, err
			}
			opts.Signal = s
		case OptInitConfigSet:
			sets, err := optStrings(key, v)
			if err != nil {
				return opts, err
			}
			opts.InitConfigSets = sets
		case OptHupConfigSet:
			sets, err := optStrings(key, v)
			if err != nil {
				return opts, err
			}
			opts.HupConfigSets = sets
		case OptAccessKey:
			opts.AccessKey = v
		case OptSecretKey:
			opts.SecretKey = v
		case OptInterval:
			interval, err := intervalValue(v)
			if err != nil {
				return opts, err
			}
			opts.Interval = interval
		default:
			return opts, cferr.Configuration(key, "unknown setup option")
		}
	}
	return opts, nil
}

func applySection(s *Section, config map[string]any) error {
	for _, key := range sortedKeys(config) {
		entries, ok := config[key].(map[string]any)
		if !ok {
			return cferr.InputType(key, "must be an object, got %T", config[key])
		}
		switch key {
		case commandsKey:
			for _, name := range sortedKeys(entries) {
				options, ok := entries[name].(map[string]any)
				if !ok {
					return cferr.InputType(commandsKey+"."+name, "must be an object, got %T", entries[name])
				}
				cmd, ok := options["command"]
				if !ok {
					return cferr.Configuration(commandsKey+"."+name, "missing command")
				}
				delete(options, "command")
				s.Command(name, cmd, options)
			}
		case filesKey:
			for _, path := range sortedKeys(entries) {
				options, ok := entries[path].(map[string]any)
				if !ok {
					return cferr.InputType(filesKey+"."+path, "must be an object, got %T", entries[path])
				}
				s.File(path, options)
			}
		case packagesKey:
			for _, manager := range sortedKeys(entries) {
				byName, ok := entries[manager].(map[string]any)
				if !ok {
					return cferr.InputType(packagesKey+"."+manager, "must be an object, got %T", entries[manager])
				}
				for _, name := range sortedKeys(byName) {
					versions, err := optStrings(packagesKey+"."+manager+"."+name, byName[name])
					if err != nil {
						return err
					}
					s.Package(manager, name, versions...)
				}
			}
		default:
			return cferr.Configuration(key, "unsupported section bucket (want commands, files or packages)")
		}
	}
	return nil
}

// optionsArg reads a single object argument, or folds key/value pairs into
// one.
func optionsArg(key string, args []cty.Value) (map[string]any, error) {
	if len(args) == 1 {
		return nativeMap(key, args[0])
	}
	v, err := surface.Pairs(key, args)
	if err != nil {
		return nil, err
	}
	return nativeMap(key, v)
}

func nativeMap(key string, v cty.Value) (map[string]any, error) {
	native, err := surface.ToNative(v)
	if err != nil {
		return nil, err
	}
	m, ok := native.(map[string]any)
	if !ok {
		return nil, cferr.InputType(key, "must be an object, got %T", native)
	}
	return m, nil
}

func optString(key string, v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case nil:
		return "", nil
	default:
		return "", cferr.Configuration(key, "must be a string, got %T", v)
	}
}

// optStrings accepts a single string or a list of strings.
func optStrings(key string, v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{val}, nil
	case []any:
		out := make([]string, 0, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, cferr.Configuration(key, "element %d must be a string, got %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, cferr.Configuration(key, "must be a string or a list of strings, got %T", v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
