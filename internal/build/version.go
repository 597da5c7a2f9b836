package build

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
	BuiltBy = "unknown"
)

// ConfigFolderName is the folder in the user's home directory where
// roletest keeps its settings.
const ConfigFolderName = ".roletest"

func IsDev() bool {
	return Version == "dev"
}

// BinaryName returns the name of the installed binary. Dev builds are
// prefixed so they can be installed alongside a release build.
func BinaryName() string {
	if IsDev() {
		return "droletest"
	}
	return "roletest"
}
