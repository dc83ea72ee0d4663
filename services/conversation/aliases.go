package conversation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"easyservice/models"
)

// Canonical selections of the fixed-choice steps.
const (
	choiceYes     = "yes"
	choiceNo      = "no"
	choiceShare   = "share"
	choiceManual  = "manual"
	choiceConfirm = "confirm"
	choiceCancel  = "cancel"
)

// MaxSlotOffers bounds the offer set; WhatsApp renders at most three reply buttons.
const MaxSlotOffers = 3

// Aliases maps (step, raw token) to a canonical selection. Each step owns its
// own table, so "1" can mean different things at different steps.
type Aliases struct {
	table          map[models.Step]map[string]string
	greetings      map[string]struct{}
	restartExact   map[string]struct{}
	restartPhrases [][]string
}

// NewAliases compiles the catalogue. A token bound to two different canonical
// values within one step is rejected.
func NewAliases(c *Catalogue) (*Aliases, error) {
	a := &Aliases{
		table:        map[models.Step]map[string]string{},
		greetings:    toSet(c.Greetings),
		restartExact: toSet(c.Restart.Exact),
	}
	for _, p := range c.Restart.Phrases {
		if w := words(p); len(w) > 0 {
			a.restartPhrases = append(a.restartPhrases, w)
		}
	}

	steps := []struct {
		step models.Step
		opts []Option
	}{
		{models.StepConsent, c.Consent},
		{models.StepCategory, c.Categories},
		{models.StepService, c.Services},
		{models.StepLocation, c.Location},
		{models.StepSummary, c.Summary},
	}
	for _, s := range steps {
		for _, o := range s.opts {
			if err := a.bind(s.step, o.ID, o.ID); err != nil {
				return nil, err
			}
			if err := a.bind(s.step, o.Reply, o.ID); err != nil {
				return nil, err
			}
			for _, alias := range o.Aliases {
				if err := a.bind(s.step, alias, o.ID); err != nil {
					return nil, err
				}
			}
		}
	}

	for i := 0; i < MaxSlotOffers; i++ {
		index := strconv.Itoa(i)
		if err := a.bind(models.StepSlot, strconv.Itoa(i+1), index); err != nil {
			return nil, err
		}
		for _, prefix := range c.Slot.ButtonPrefixes {
			if err := a.bind(models.StepSlot, prefix+index, index); err != nil {
				return nil, err
			}
		}
	}
	return a, nil
}

func (a *Aliases) bind(step models.Step, token, canonical string) error {
	token = normalize(token)
	if token == "" {
		return nil
	}
	m, ok := a.table[step]
	if !ok {
		m = map[string]string{}
		a.table[step] = m
	}
	if prev, ok := m[token]; ok && prev != canonical {
		return fmt.Errorf("alias %q at step %s maps to both %q and %q", token, step, prev, canonical)
	}
	m[token] = canonical
	return nil
}

// Resolve returns the canonical selection for token at step. At the slot step
// the canonical value is the zero-based offer index in decimal.
func (a *Aliases) Resolve(step models.Step, token string) (string, bool) {
	token = normalize(token)
	if token == "" {
		return "", false
	}
	canonical, ok := a.table[step][token]
	return canonical, ok
}

// IsGreeting reports whether any word of token is a greeting.
func (a *Aliases) IsGreeting(token string) bool {
	for _, word := range words(token) {
		if _, ok := a.greetings[word]; ok {
			return true
		}
	}
	return false
}

// IsRestart reports whether token asks to start the conversation over: an
// exact restart token, or a restart phrase appearing as whole words.
func (a *Aliases) IsRestart(token string) bool {
	if a.isRestartToken(token) {
		return true
	}
	w := words(token)
	for _, phrase := range a.restartPhrases {
		if containsRun(w, phrase) {
			return true
		}
	}
	return false
}

// IsExactRestart is IsRestart for steps that take free text: the whole
// message must be the restart command, so "Restart Towers" stays an address.
func (a *Aliases) IsExactRestart(token string) bool {
	if a.isRestartToken(token) {
		return true
	}
	w := words(token)
	for _, phrase := range a.restartPhrases {
		if len(w) == len(phrase) && containsRun(w, phrase) {
			return true
		}
	}
	return false
}

func (a *Aliases) isRestartToken(token string) bool {
	token = normalize(token)
	if token == "" {
		return false
	}
	_, ok := a.restartExact[token]
	return ok
}

// containsRun reports whether run occurs in w as consecutive elements.
func containsRun(w, run []string) bool {
	for i := 0; i+len(run) <= len(w); i++ {
		match := true
		for j := range run {
			if w[i+j] != run[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func words(s string) []string {
	return strings.FieldsFunc(normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[normalize(v)] = struct{}{}
	}
	return set
}
