// Package provider implements translation backends and the batching adapter
// the pipeline talks to.
package provider

import "github.com/ZaguanLabs/webproxy"

// Provider is the interface for translation backends.
// This is an alias to the main package interface for convenience.
type Provider = webproxy.Provider

// TranslateRequest is an alias to the main package type.
type TranslateRequest = webproxy.TranslateRequest
