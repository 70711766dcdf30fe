// Package compiler wraps the source-to-target transformer.
package compiler

import "context"

// Request describes one transform run
type Request struct {
	// WorkDir is where the compiler command is started
	WorkDir   string
	SourceDir string
	OutDir    string
	// CopyFiles copies files the compiler does not transform
	CopyFiles bool
}

// Compiler transforms a source tree into an output tree
type Compiler interface {
	Transform(ctx context.Context, req Request) (string, error)

	// Version reports the compiler version, used to pin the runtime dependency
	Version(ctx context.Context, workDir string) (string, error)
}
