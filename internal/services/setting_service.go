package services

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"staticblog/internal/constants"
	"staticblog/internal/repository"
	"staticblog/internal/site"
)

// settingValidators holds the editable keys and their checks.
var settingValidators = map[string]func(string) error{
	constants.SettingSiteTitle: func(v string) error {
		if v == "" {
			return invalid(constants.SettingSiteTitle, "must not be empty")
		}
		return nil
	},
	constants.SettingSiteDescription: func(string) error { return nil },
	constants.SettingSiteURL: func(v string) error {
		u, err := url.Parse(v)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid(constants.SettingSiteURL, "must be an absolute http(s) URL")
		}
		return nil
	},
	constants.SettingSiteLanguage: func(v string) error {
		if v == "" {
			return invalid(constants.SettingSiteLanguage, "must not be empty")
		}
		return nil
	},
	constants.SettingAdminEmail: func(v string) error {
		if v == "" {
			return nil
		}
		if _, err := mail.ParseAddress(v); err != nil {
			return invalid(constants.SettingAdminEmail, "must be an email address")
		}
		return nil
	},
	constants.SettingPostsPerPage:  intRange(constants.SettingPostsPerPage, 1, 100),
	constants.SettingExcerptLength: intRange(constants.SettingExcerptLength, 10, 1000),
}

func intRange(key string, lo, hi int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < lo || n > hi {
			return invalid(key, fmt.Sprintf("must be a whole number between %d and %d", lo, hi))
		}
		return nil
	}
}

type SettingService struct {
	repo         *repository.SettingRepository
	invalidator  *Invalidator
	settings     map[string]string
	settingsLock sync.RWMutex
}

func NewSettingService(repo *repository.SettingRepository, invalidator *Invalidator) *SettingService {
	s := &SettingService{
		repo:        repo,
		invalidator: invalidator,
		settings:    make(map[string]string),
	}
	s.loadSettings(context.Background())
	return s
}

func (s *SettingService) loadSettings(ctx context.Context) {
	settings, err := s.repo.GetAllSettings(ctx)
	if err != nil {
		log.Printf("Failed to load settings: %v", err)
		return
	}
	s.settingsLock.Lock()
	s.settings = settings
	s.settingsLock.Unlock()
}

// GetAllSettings returns a copy of the cached settings.
func (s *SettingService) GetAllSettings() map[string]string {
	s.settingsLock.RLock()
	defer s.settingsLock.RUnlock()

	settingsCopy := make(map[string]string, len(s.settings))
	for key, value := range s.settings {
		settingsCopy[key] = value
	}
	return settingsCopy
}

func (s *SettingService) GetSetting(key string) string {
	s.settingsLock.RLock()
	defer s.settingsLock.RUnlock()
	return s.settings[key]
}

// Site returns the typed view of the cached settings.
func (s *SettingService) Site() site.SiteSettings {
	return site.SettingsFromMap(s.GetAllSettings())
}

// UpdateSettings validates and stores values, refreshes the cache and
// regenerates the site when an output-affecting key changed.
func (s *SettingService) UpdateSettings(ctx context.Context, values map[string]string) (Outcome, error) {
	current := s.GetAllSettings()
	changed := make(map[string]string)
	var keys []string
	for key, value := range values {
		validate, ok := settingValidators[key]
		if !ok {
			return Outcome{}, invalid(key, "unknown setting")
		}
		value = strings.TrimSpace(value)
		if key == constants.SettingSiteURL {
			value = strings.TrimRight(value, "/")
		}
		if err := validate(value); err != nil {
			return Outcome{}, err
		}
		if current[key] != value {
			changed[key] = value
			keys = append(keys, key)
		}
	}
	if len(changed) == 0 {
		return Outcome{}, nil
	}

	if err := s.repo.UpdateSettings(ctx, changed); err != nil {
		return Outcome{}, fmt.Errorf("save settings: %w", err)
	}
	s.loadSettings(ctx)
	return s.invalidator.Notify(ctx, Change{Entity: EntitySettings, Action: ActionUpdate, SettingKeys: keys}), nil
}
