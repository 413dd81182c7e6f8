package config

import (
	"encoding/json"
	"fmt"
	"os"
)

var Config = DefaultConfiguration()

// RTLPair maps a finished left-to-right CSS output to the name its
// right-to-left variant is registered under.
type RTLPair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type Configuration struct {
	SrcDir        string             `json:"source_directory,omitempty"`
	BuildDir      string             `json:"build_directory,omitempty"`
	StyleCompiler string             `json:"style_compiler,omitempty"` // "builtin" or "dart-sass"
	Entries       map[string]string  `json:"entries,omitempty"`
	RTLPairs      []RTLPair          `json:"rtl_pairs,omitempty"`
	StaticDirs    []string           `json:"static_directories,omitempty"`
	RTLConfig     RTLConfiguration   `json:"rtl_config,omitempty"`
	ServeConfig   ServeConfiguration `json:"serve_config,omitempty"`
}

type RTLConfiguration struct {
	RenameSuffixes bool `json:"rename_suffixes"`
	Clean          bool `json:"clean"`
}

type ServeConfiguration struct {
	Redirect404 string `json:"redirect_404"`
	Port        int    `json:"port"`
}

func DefaultConfiguration() *Configuration {
	return &Configuration{
		SrcDir:        "src",
		BuildDir:      "build",
		StyleCompiler: "builtin",
		Entries: map[string]string{
			"app":       "scss/app.scss",
			"bootstrap": "scss/bootstrap.scss",
		},
		RTLPairs: []RTLPair{
			{Source: "css/app.min.css", Target: "css/app-rtl.min.css"},
			{Source: "css/bootstrap.min.css", Target: "css/bootstrap-rtl.min.css"},
		},
		StaticDirs: []string{
			"images",
			"js",
			"vendor",
		},
		ServeConfig: ServeConfiguration{
			Redirect404: "",
			Port:        8100,
		},
	}
}

// Init loads the configuration file over the defaults. A missing file is
// not an error, the defaults apply as-is.
func Init(configpath string) error {
	if configpath == "" {
		configpath = "dashbuild.json"
	}

	_, err := os.Stat(configpath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("could not access configuration file %s: %v", configpath, err)
		}

		return nil
	}

	f, err := os.Open(configpath)
	if err != nil {
		return err
	}
	defer f.Close()

	var fc Configuration
	err = json.NewDecoder(f).Decode(&fc)
	if err != nil {
		return fmt.Errorf("could not parse configuration file %s: %v", configpath, err)
	}

	// a field present in the file replaces the default wholesale, an
	// absent one keeps it
	if fc.SrcDir != "" {
		Config.SrcDir = fc.SrcDir
	}
	if fc.BuildDir != "" {
		Config.BuildDir = fc.BuildDir
	}
	if fc.StyleCompiler != "" {
		Config.StyleCompiler = fc.StyleCompiler
	}
	if fc.Entries != nil {
		Config.Entries = fc.Entries
	}
	if fc.RTLPairs != nil {
		Config.RTLPairs = fc.RTLPairs
	}
	if fc.StaticDirs != nil {
		Config.StaticDirs = fc.StaticDirs
	}
	Config.RTLConfig = fc.RTLConfig
	if fc.ServeConfig.Port != 0 {
		Config.ServeConfig.Port = fc.ServeConfig.Port
	}
	if fc.ServeConfig.Redirect404 != "" {
		Config.ServeConfig.Redirect404 = fc.ServeConfig.Redirect404
	}

	return nil
}
