package nix

import "runtime"

var supportedSystems = map[string]struct{}{
	"x86_64-linux":   {},
	"aarch64-linux":  {},
	"x86_64-darwin":  {},
	"aarch64-darwin": {},
}

// currentSystem returns the current system in Nix format.
func currentSystem() string {
	return systemFor(runtime.GOOS, runtime.GOARCH)
}

func systemFor(goos, goarch string) string {
	switch {
	case goos == "darwin" && goarch == "amd64":
		return "x86_64-darwin"
	case goos == "darwin" && goarch == "arm64":
		return "aarch64-darwin"
	case goos == "linux" && goarch == "amd64":
		return "x86_64-linux"
	case goos == "linux" && goarch == "arm64":
		return "aarch64-linux"
	default:
		// Fallback to x86_64-linux for unknown systems
		return "x86_64-linux"
	}
}
