package tui

import (
	"errors"
	"strings"

	"orbench/internal/config"
	"orbench/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
)

// setupValues holds the raw strings bound to the first-run setup form.
type setupValues struct {
	apiKey string
	code   string
	rate   string
	theme  string
}

func defaultSetupValues(cfg config.Config) setupValues {
	vals := setupValues{
		apiKey: cfg.Connection.APIKey,
		code:   cfg.Currency.Code,
		rate:   cfg.Currency.USDRate,
		theme:  cfg.Appearance.Theme,
	}
	if vals.theme == "" {
		vals.theme = theme.All[0].Name
	}
	return vals
}

// newSetupForm builds the first-run setup wizard shown when no config
// file exists yet.
func newSetupForm(vals *setupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("OpenRouter API key").
				Description("From https://openrouter.ai/keys. Leave blank to use $OPENROUTER_API_KEY.").
				Placeholder("sk-or-v1-...").
				EchoMode(huh.EchoModePassword).
				Value(&vals.apiKey),
			huh.NewInput().
				Title("Display currency").
				Description("Costs stay in USD and are also shown in this currency.").
				Placeholder("INR").
				Value(&vals.code),
			huh.NewInput().
				Title("Rate per USD").
				Description("Fixed conversion rate, e.g. 89.5 for INR.").
				Validate(validateRate).
				Value(&vals.rate),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.theme),
		),
	)
}

func validateRate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil // blank keeps the current rate
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return errors.New("enter a number, e.g. 89.5")
	}
	if !d.IsPositive() {
		return errors.New("rate must be positive")
	}
	return nil
}

// saveSetupConfig folds the completed form values into the config,
// persists it, and rebuilds the client wiring.
func (a *App) saveSetupConfig() {
	if key := strings.TrimSpace(a.setupVals.apiKey); key != "" {
		a.cfg.Connection.APIKey = key
	}
	if code := strings.TrimSpace(a.setupVals.code); code != "" {
		a.cfg.Currency.Code = strings.ToUpper(code)
	}
	if rate := strings.TrimSpace(a.setupVals.rate); rate != "" {
		if d, err := decimal.NewFromString(rate); err == nil && d.IsPositive() {
			a.cfg.Currency.USDRate = d.String()
		}
	}
	if a.setupVals.theme != "" {
		a.cfg.Appearance.Theme = a.setupVals.theme
		theme.SetActive(a.setupVals.theme)
	}

	// A save failure is not fatal; the session keeps the in-memory config.
	_ = config.Save(a.cfg)

	a.rebuild()
	a.profile = config.DefaultProfile(a.cfg)
}
