package config

const SourceFileExt = ".ncl"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".ncl"}

// ProjectFileNames are the names FindConfig looks for, in order.
var ProjectFileNames = []string{"nickel.yaml", "nickel.yml"}

// Pseudo-paths of sources that do not come from the filesystem.
const (
	StdlibPrefix = "<stdlib/"
	StdinName    = "<stdin>"
	QueryName    = "<query>"
)

// Evaluation limits. Zero in a project file means "use the default".
const (
	DefaultMaxDepth = 10000
	DefaultMaxSteps = 0 // unlimited
)

// Color modes for diagnostics.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Export formats.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatTOML     = "toml"
	FormatProtobuf = "binpb"
)

// DataFileExtensions are imported as data rather than parsed as source.
var DataFileExtensions = []string{".json", ".yaml", ".yml"}
