package version

import version2 "github.com/hashicorp/go-version"

// Version is the control plane release version.
var Version = "0.1.0"

// NatsVersion is the mandatory minimum version of NATS that is supported by the control plane
var NatsVersion, _ = version2.NewVersion("v2.10.12")
