package flowable

// Version is the release of the engine, set at build time with
// -ldflags "-X github.com/fangliji/flowable-engine.Version=...".
var Version = "dev"
