package env

import "os"

func IsGithubAction() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

func IsGithubDebugMode() bool {
	return os.Getenv("RUNNER_DEBUG") == "true"
}

// IsNoColor reports whether the NO_COLOR convention asks for unstyled output.
func IsNoColor() bool {
	return os.Getenv("NO_COLOR") != ""
}
