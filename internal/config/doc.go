// Package config provides the agent's configuration: the Options assembled
// by the root package's functional options, and the YAML file and
// environment variables the command line tool reads them from.
package config
