// Package plugins hosts plugin implementation subpackages. It intentionally
// contains no production runtime code itself. Plugin packages depend on
// internal/core for registration and on pkg/pluginapi for the stable rule
// evaluation surface; they must not reach into store registries directly.
package plugins
