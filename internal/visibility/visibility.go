// Package visibility computes, per message, which affordances are eligible
// to render. Everything here is a pure function over a store snapshot and
// the widget configuration; nothing is cached between render passes.
package visibility

import (
	"github.com/uglyrobot/docsbot-widget-core/internal/config"
	"github.com/uglyrobot/docsbot-widget-core/internal/models"
)

// IsRepeated reports whether the message at index i follows another bot
// message, which suppresses the avatar for consecutive bot turns.
func IsRepeated(msgs []models.Message, i int) bool {
	if i <= 0 || i >= len(msgs) {
		return false
	}
	return msgs[i-1].Variant == models.VariantBot
}

// IsFirstBotMessage reports whether no earlier message in the timeline is a
// bot message.
func IsFirstBotMessage(msgs []models.Message, i int) bool {
	if i < 0 || i >= len(msgs) {
		return false
	}
	for j := 0; j < i; j++ {
		if msgs[j].Variant == models.VariantBot {
			return false
		}
	}
	return true
}

// HasNextMessage reports whether a later message exists in timeline order.
func HasNextMessage(msgs []models.Message, i int) bool {
	return i >= 0 && i < len(msgs)-1
}

// HasVisibleSources reports whether the message's source list should render.
// A hide-all rule suppresses every list; a type list suppresses only lists
// whose sources all match a hidden type.
func HasVisibleSources(m models.Message, hideAll bool, hiddenTypes []string) bool {
	if len(m.Sources) == 0 || hideAll {
		return false
	}
	if len(hiddenTypes) == 0 {
		return true
	}
	hidden := make(map[string]bool, len(hiddenTypes))
	for _, t := range hiddenTypes {
		hidden[t] = true
	}
	for _, src := range m.Sources {
		if !hidden[src.Type] {
			return true
		}
	}
	return false
}

// ShouldShowCopyButton reports whether the copy affordance attaches to the
// message at index i.
func ShouldShowCopyButton(msgs []models.Message, i int, cfg *config.Config) bool {
	if !cfg.EnableCopy || i < 0 || i >= len(msgs) {
		return false
	}
	m := msgs[i]
	if m.Loading || m.Content == "" || m.Type == models.TypeLeadCollectMessage {
		return false
	}
	if IsFirstBotMessage(msgs, i) {
		return false
	}
	if cfg.AgentMode {
		// Agent lookup answers get a copy button; resolution checks and
		// escalation prompts do not.
		return m.Type != models.TypeIsResolvedQuestion && m.Type != models.TypeSupportEscalation
	}
	return HasVisibleSources(m, cfg.HideAllSources, cfg.HiddenSourceTypes)
}
