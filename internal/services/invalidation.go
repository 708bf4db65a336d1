package services

import (
	"context"
	"log"
	"slices"

	"staticblog/internal/constants"
	"staticblog/internal/site"
)

// Regenerator rebuilds the whole generated site.
type Regenerator interface {
	Regenerate(ctx context.Context) (*site.Report, error)
}

type Entity string

const (
	EntityPost     Entity = "post"
	EntityCategory Entity = "category"
	EntitySettings Entity = "settings"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change describes one committed mutation.
type Change struct {
	Entity Entity
	Action Action
	// WasPublished and IsPublished give a post's visibility before and
	// after the mutation.
	WasPublished bool
	IsPublished  bool
	// SettingKeys lists the settings whose values changed.
	SettingKeys []string
}

// NeedsRegeneration reports whether c can change any generated file.
// Draft-only post edits and settings that never reach the output do not.
func NeedsRegeneration(c Change) bool {
	switch c.Entity {
	case EntityPost:
		switch c.Action {
		case ActionCreate:
			return c.IsPublished
		case ActionUpdate:
			return c.WasPublished || c.IsPublished
		case ActionDelete:
			return c.WasPublished
		}
	case EntityCategory:
		return true
	case EntitySettings:
		for _, key := range c.SettingKeys {
			if slices.Contains(constants.OutputSettingKeys, key) {
				return true
			}
		}
	}
	return false
}

// Outcome reports what a mutation did to the generated site. A failed
// regeneration does not fail the mutation; it is surfaced as Warning.
type Outcome struct {
	Regenerated bool   `json:"regenerated"`
	Warning     string `json:"warning,omitempty"`
}

// Invalidator is the single place mutations hand their changes to.
type Invalidator struct {
	regen Regenerator
}

func NewInvalidator(regen Regenerator) *Invalidator {
	return &Invalidator{regen: regen}
}

// Notify regenerates the site when c requires it.
func (i *Invalidator) Notify(ctx context.Context, c Change) Outcome {
	if i == nil || i.regen == nil || !NeedsRegeneration(c) {
		return Outcome{}
	}
	return i.Regenerate(ctx)
}

// Regenerate runs a full regeneration unconditionally.
func (i *Invalidator) Regenerate(ctx context.Context) Outcome {
	if _, err := i.regen.Regenerate(ctx); err != nil {
		log.Printf("Regeneration after content change failed: %v", err)
		return Outcome{Regenerated: true, Warning: "content saved, but regenerating the site failed: " + err.Error()}
	}
	return Outcome{Regenerated: true}
}
