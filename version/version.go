package version

// Version is the current version of Vigilo, set at build time through ldflags
var Version = "dev"

// InstallationSource tracks how this build was delivered, set at build time through ldflags
var InstallationSource = "Unknown"
