// Package deobfuscate contains the deobfuscation engines: independent, pure
// transforms that each try to recover plaintext from one obfuscation layer.
// Engines never mutate their input and never fail; an engine that recovers
// nothing reports success=false, which is a normal outcome.
package deobfuscate

import (
	"crypto/sha256"

	"golang.org/x/sync/errgroup"
)

// maxRecursionDepth bounds how many times recovered fragments are fed back
// through the registry, so multiply-layered payloads are unwrapped but
// self-referential input cannot loop forever.
const maxRecursionDepth = 5

// Attempt is the outcome of one engine run.
type Attempt struct {
	Engine        string   `json:"engine"`
	Technique     string   `json:"technique"`
	Success       bool     `json:"success"`
	Recovered     string   `json:"recovered,omitempty"`
	Confidence    float64  `json:"confidence"`
	LayersRemoved int      `json:"layers_removed"`
	Artifacts     []string `json:"artifacts,omitempty"`
}

// Engine is one deobfuscation transform.
type Engine interface {
	Name() string
	Attempt(text string) Attempt
}

// Registry holds an ordered set of engines.
type Registry struct {
	engines []Engine
}

// NewRegistry builds a registry from the given engines.
func NewRegistry(engines ...Engine) *Registry {
	return &Registry{engines: engines}
}

// DefaultRegistry returns the built-in engine set.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewBase64Engine(),
		NewXOREngine(),
		NewConcatEngine(),
		NewCharCodeEngine(),
	)
}

// Names lists the registered engine names in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.engines))
	for i, e := range r.engines {
		names[i] = e.Name()
	}
	return names
}

// RunAll runs every engine on the same input text. Engines are independent
// so they run concurrently; results keep registration order.
func (r *Registry) RunAll(text string) []Attempt {
	attempts := make([]Attempt, len(r.engines))

	var g errgroup.Group
	for i, e := range r.engines {
		g.Go(func() error {
			attempts[i] = e.Attempt(text)
			return nil
		})
	}
	_ = g.Wait() // engines never return errors

	return attempts
}

// RunRecursive feeds each successful engine's recovered text back through
// the whole registry, up to maxRecursionDepth layers deep. Fragments already
// seen (hashed) are skipped, which terminates cycles such as text that
// decodes to itself. All attempts from all layers are returned.
func (r *Registry) RunRecursive(text string) []Attempt {
	var all []Attempt
	seen := map[[32]byte]bool{sha256.Sum256([]byte(text)): true}
	pending := []string{text}

	for depth := 0; depth < maxRecursionDepth && len(pending) > 0; depth++ {
		var next []string
		for _, t := range pending {
			for _, attempt := range r.RunAll(t) {
				all = append(all, attempt)
				if !attempt.Success || attempt.Recovered == "" {
					continue
				}
				h := sha256.Sum256([]byte(attempt.Recovered))
				if seen[h] {
					continue
				}
				seen[h] = true
				next = append(next, attempt.Recovered)
			}
		}
		pending = next
	}
	return all
}

// RecoveredTexts extracts the distinct recovered fragments from a set of
// attempts, in attempt order.
func RecoveredTexts(attempts []Attempt) []string {
	var texts []string
	seen := map[[32]byte]bool{}
	for _, a := range attempts {
		if !a.Success || a.Recovered == "" {
			continue
		}
		h := sha256.Sum256([]byte(a.Recovered))
		if seen[h] {
			continue
		}
		seen[h] = true
		texts = append(texts, a.Recovered)
	}
	return texts
}
