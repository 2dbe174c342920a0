// Package config defines the configuration of a miga node, default values,
// and the construction of the logger that all components share.
package config
