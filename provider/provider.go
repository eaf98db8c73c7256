// Package provider contains translation backends for the tlcache Translator.
package provider

import "github.com/ZaguanLabs/tlcache"

// Backend is the interface for translation backends.
// This is an alias to the main package interface for convenience.
type Backend = tlcache.TranslationBackend

// Request is an alias to the main package type.
type Request = tlcache.BackendRequest
