package bootstrap

const (
	commandsKey = "commands"
	filesKey    = "files"
	packagesKey = "packages"
)

// Section is a scoped builder over one config section. It owns a copy of
// the stored section; InitConfig writes the copy back once the caller's
// block returns.
type Section struct {
	data map[string]any
}

func loadSection(v any) *Section {
	return &Section{data: asMap(v)}
}

// Map returns the section mapping. Buckets appear only once something has
// been registered in them (or when they were already stored).
func (s *Section) Map() map[string]any {
	return s.data
}

func (s *Section) bucket(key string) map[string]any {
	m, ok := s.data[key].(map[string]any)
	if !ok {
		m = map[string]any{}
		s.data[key] = m
	}
	return m
}

// Command registers commands[name] as options plus the command itself. cmd
// is either a shell string or an argv list.
func (s *Section) Command(name string, cmd any, options map[string]any) {
	entry := asMap(options)
	entry["command"] = cloneValue(cmd)
	s.bucket(commandsKey)[name] = entry
}

// File registers files[path], replacing any previous entry.
func (s *Section) File(path string, options map[string]any) {
	s.bucket(filesKey)[path] = asMap(options)
}

// Package registers packages[manager][name] with the given versions; no
// versions means "latest".
func (s *Section) Package(manager, name string, versions ...string) {
	pkgs := s.bucket(packagesKey)
	byManager, ok := pkgs[manager].(map[string]any)
	if !ok {
		byManager = map[string]any{}
		pkgs[manager] = byManager
	}
	byManager[name] = asList(versions)
}
