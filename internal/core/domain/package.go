package domain

// PackageInfo describes a package as reported by the package index for the current system.
type PackageInfo struct {
	// AttrPath is the attribute path that was looked up (e.g. "git", "python3Packages.aiohttp").
	AttrPath string
	// Version is the latest version known to the index.
	Version string
	// Rev is the nixpkgs revision the version was found in.
	Rev string
	// Summary is the package description, if any.
	Summary string
}

// VerifyResult is the outcome of checking one requirement against the package index.
type VerifyResult struct {
	Requirement Requirement
	AttrPath    string
	Found       bool
	Info        PackageInfo
	// Err is set when the lookup itself failed (network, parse), as opposed to a missing package.
	Err error
}
