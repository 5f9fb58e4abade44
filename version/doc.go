// Package version reports the llm-utils release and build metadata.
//
// Commit and build time can be stamped at link time:
//
//	go build -ldflags "-X github.com/plasma-umass/llm-utils/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Otherwise they are read from the Go build info when available.
package version
