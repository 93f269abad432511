// Package tools provides the built-in local tools: directory listing and
// file reading, plus management tools that let the model inspect and
// refresh the operations offered by external services.
package tools
