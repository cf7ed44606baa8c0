package voyago

// Version is the library version, overridable at build time via
// -ldflags "-X github.com/voyago/voyago.Version=...".
var Version = "0.3.0"
