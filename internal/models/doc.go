// Package models maps model aliases to Messages API model ids and knows each
// model's output token ceiling.
package models
