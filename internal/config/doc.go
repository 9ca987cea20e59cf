// Package config provides unified configuration loading from files,
// environment variables, and CLI flags using viper and pflag.
//
// Resolution order (highest wins):
//  1. CLI flags
//  2. Environment variables (prefix KDEPLOY_)
//  3. Config file (kdeploy.yaml in ., $HOME/.config/kdeploy or /etc/kdeploy/)
//  4. Compiled defaults
package config
