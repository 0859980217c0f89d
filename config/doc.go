// Package config loads pipeline configuration from YAML with environment
// overrides. Defaults come first, then the file layer, then LAWGRAPH_*
// environment variables, so containerized deployments can override any
// connection detail without editing the file.
package config
