// Package config assembles the bootstrap configuration from defaults, an
// optional envboot.yaml, ENVBOOT_* environment variables, and CLI flags.
package config

// Config holds every knob the bootstrap accepts. All paths are absolute
// after loading.
type Config struct {
	// ProjectRoot anchors every relative path; set from --project-dir or
	// the working directory, never from the config file.
	ProjectRoot string `koanf:"-"`

	// EnvDir is the isolated environment directory.
	EnvDir string `koanf:"env_dir"`

	// Manifest is the pinned dependency declaration file.
	Manifest string `koanf:"manifest"`

	// Python optionally pins the system interpreter to probe first; when
	// empty, the standard candidate names are tried.
	Python string `koanf:"python"`

	// MinPythonVersion is the lowest acceptable interpreter version.
	MinPythonVersion string `koanf:"min_python_version"`

	// VerifyModules is the fixed set of load-bearing imports probed after
	// installation. Deliberately not derived from the manifest.
	VerifyModules []string `koanf:"verify_modules"`

	// SkipVerify disables the verification stage.
	SkipVerify bool `koanf:"skip_verify"`

	// NoColor forces plain console output.
	NoColor bool `koanf:"no_color"`

	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`
}

const (
	DefaultEnvDir           = ".venv"
	DefaultManifest         = "requirements.txt"
	DefaultMinPythonVersion = "3.9"
)

// DefaultVerifyModules are the backend's load-bearing libraries: the web
// framework, the cloud SDK, and the optimization solver.
func DefaultVerifyModules() []string {
	return []string{"fastapi", "boto3", "scipy"}
}
