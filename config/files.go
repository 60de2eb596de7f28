package config

// Configuration file names in load order. Each file's contents load
// under its key prefix: config.yml populates general/*, taxonomy.yml
// populates taxonomy/*, and so on.
var configFiles = []struct {
	Name   string
	Prefix string
}{
	{"config.yml", "general"},
	{"contenttypes.yml", "contenttypes"},
	{"menu.yml", "menu"},
	{"permissions.yml", "permissions"},
	{"routing.yml", "routing"},
	{"taxonomy.yml", "taxonomy"},
}

// Files returns the names of the configuration files the loader reads,
// in load order.
func Files() []string {
	out := make([]string, len(configFiles))
	for i, f := range configFiles {
		out[i] = f.Name
	}
	return out
}

// PrefixFor returns the key prefix a configuration file loads under,
// or "" when the name is not part of the file set.
func PrefixFor(name string) string {
	for _, f := range configFiles {
		if f.Name == name {
			return f.Prefix
		}
	}
	return ""
}
