// Package file provides file-based configuration adapters.
//
// Adapters:
//   - ConfigStore: read-only TOML configuration
//   - PromptStore: user-editable LLM prompt templates
//   - Loader: resolves domain.Settings from TOML, .env and the environment
package file
