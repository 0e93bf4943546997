// Package clipboard implements the tiered copy fallback chain for message
// content. The platform clipboard is an injected capability; richer tiers
// are discovered by interface upgrade, so a host only implements what its
// platform supports.
package clipboard

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/uglyrobot/docsbot-widget-core/internal/metrics"
)

// IndicatorDuration is how long the "copied" indicator stays visible,
// regardless of which tier succeeded.
const IndicatorDuration = 2 * time.Second

// RichWriter writes a structured multi-format payload (plain text + HTML).
type RichWriter interface {
	WriteRich(text, html string) error
}

// TextWriter writes plain text only.
type TextWriter interface {
	WriteText(text string) error
}

// LegacyCopier copies via a temporarily-inserted, selected text field, for
// platforms with no clipboard API at all.
type LegacyCopier interface {
	CopyViaSelection(text string) error
}

// Copier runs the fallback chain against one injected device.
type Copier struct {
	dev any
	log zerolog.Logger
}

// New creates a Copier. dev may implement any subset of RichWriter,
// TextWriter and LegacyCopier.
func New(dev any, log zerolog.Logger) *Copier {
	return &Copier{dev: dev, log: log}
}

// Copy writes the message to the clipboard, trying the richest supported
// tier first and falling through on failure. It reports whether any tier
// succeeded.
func (c *Copier) Copy(markdown, html string) bool {
	if rw, ok := c.dev.(RichWriter); ok {
		if err := rw.WriteRich(markdown, html); err == nil {
			metrics.CopyAttempts.WithLabelValues("rich").Inc()
			return true
		} else {
			c.log.Debug().Err(err).Msg("rich clipboard write failed, falling back")
		}
	}
	if tw, ok := c.dev.(TextWriter); ok {
		if err := tw.WriteText(markdown); err == nil {
			metrics.CopyAttempts.WithLabelValues("text").Inc()
			return true
		} else {
			c.log.Debug().Err(err).Msg("plain text clipboard write failed, falling back")
		}
	}
	if lc, ok := c.dev.(LegacyCopier); ok {
		if err := lc.CopyViaSelection(markdown); err == nil {
			metrics.CopyAttempts.WithLabelValues("legacy").Inc()
			return true
		} else {
			c.log.Debug().Err(err).Msg("legacy selection copy failed")
		}
	}
	metrics.CopyAttempts.WithLabelValues("failed").Inc()
	c.log.Warn().Msg("no clipboard tier succeeded")
	return false
}
