// Package wrapper implements the pass-through extension that wraps one external CLI.
package wrapper
