package coldline

// Version is the release version of the coldline module. Overridden at
// build time via -ldflags "-X github.com/aretw0/coldline.Version=...".
var Version = "0.1.0-dev"
