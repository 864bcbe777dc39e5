package render

import "io"

// Renderer prints a command result in human-readable form
type Renderer[T any] interface {
	Render(result T) error
}

// Output writes result as JSON when asJSON is set and with r otherwise
func Output[T any](out io.Writer, asJSON bool, r Renderer[T], result T) error {
	if asJSON {
		return RenderJSON(out, result)
	}
	return r.Render(result)
}
