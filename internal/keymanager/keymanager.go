package keymanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"techpulse/internal/config"
	"techpulse/internal/llm"
	"techpulse/internal/metrics"
	"techpulse/internal/model"
)

// FallbackCredentialID identifies generations served by the configured fallback secret.
const FallbackCredentialID = "emergent_fallback"

const (
	testPersona = "You are a helpful assistant."
	testPrompt  = "Say 'API key test successful' and nothing else."
)

var (
	// ErrNoCredentials means every provider and the fallback failed or were unavailable.
	ErrNoCredentials = errors.New("no usable credential")
	// ErrNoCredentialAvailable means no eligible credential exists for a provider.
	ErrNoCredentialAvailable = errors.New("no eligible credential available")

	errEmptyResponse = errors.New("provider returned an empty response")
)

// Store is the persistence the manager needs. Increments must be atomic in the store.
type Store interface {
	FindActiveCredentials(ctx context.Context, provider string) ([]model.Credential, error)
	IncrementCredentialUsage(ctx context.Context, id string, at time.Time) error
	ResetAllCredentialUsage(ctx context.Context) (int64, error)
}

// ProviderSource resolves a provider tag to a client.
type ProviderSource interface {
	Get(name string) (llm.Provider, error)
}

// Result is the outcome of one successful generation.
type Result struct {
	Text         string
	CredentialID string
	Provider     string
	Model        string
}

// UsedFallback reports whether the fallback secret produced the text.
func (r *Result) UsedFallback() bool {
	return r.CredentialID == FallbackCredentialID
}

// Manager defines the interface for credential selection and provider failover.
// This allows for mocking in tests and decouples the handlers from the concrete implementation.
type Manager interface {
	SelectCredential(ctx context.Context, provider string) (*model.Credential, error)
	GenerateWithFailover(ctx context.Context, language, prompt string) (*Result, error)
	RecordUsage(ctx context.Context, credentialID string)
	ResetDailyUsage(ctx context.Context) error
	TestCredential(ctx context.Context, cred *model.Credential) (string, error)
}

// KeyManager picks credentials from the store and drives generation across providers.
// It keeps no pool state in memory; the store's atomic increment is the only synchronization.
type KeyManager struct {
	store     Store
	providers ProviderSource
	cfg       config.LLMConfig
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewKeyManager creates a new KeyManager.
func NewKeyManager(store Store, providers ProviderSource, cfg config.LLMConfig, logger *slog.Logger) *KeyManager {
	if len(cfg.ProviderOrder) == 0 {
		cfg.ProviderOrder = []string{model.ProviderGemini, model.ProviderOpenAI, model.ProviderAnthropic}
	}
	if cfg.FallbackProvider == "" {
		cfg.FallbackProvider = model.ProviderGemini
	}
	if cfg.FallbackModel == "" {
		cfg.FallbackModel = "gemini-2.0-flash"
	}
	return &KeyManager{
		store:     store,
		providers: providers,
		cfg:       cfg,
		timeout:   cfg.Timeout(),
		logger:    logger.With("component", "keymanager"),
		now:       time.Now,
	}
}

// SelectCredential returns the best eligible credential for a provider.
// An empty provider considers every provider.
func (km *KeyManager) SelectCredential(ctx context.Context, provider string) (*model.Credential, error) {
	creds, err := km.store.FindActiveCredentials(ctx, provider)
	if err != nil {
		return nil, err
	}
	sortCandidates(creds)
	cred := pickEligible(creds)
	if cred == nil {
		return nil, ErrNoCredentialAvailable
	}
	return cred, nil
}

// sortCandidates orders by priority descending, then usage ascending. Ties keep store order.
func sortCandidates(creds []model.Credential) {
	sort.SliceStable(creds, func(i, j int) bool {
		if creds[i].Priority != creds[j].Priority {
			return creds[i].Priority > creds[j].Priority
		}
		return creds[i].CurrentUsage < creds[j].CurrentUsage
	})
}

func pickEligible(creds []model.Credential) *model.Credential {
	for i := range creds {
		if creds[i].Eligible() {
			return &creds[i]
		}
	}
	return nil
}

// GenerateWithFailover tries one credential per provider in the configured order
// and returns the first successful generation. Usage is not recorded here.
func (km *KeyManager) GenerateWithFailover(ctx context.Context, language, prompt string) (*Result, error) {
	persona := Persona(language)
	sessionID := fmt.Sprintf("techpulse_%s_%d", language, km.now().UnixNano())

	for _, provider := range km.cfg.ProviderOrder {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cred, err := km.SelectCredential(ctx, provider)
		if err != nil {
			if !errors.Is(err, ErrNoCredentialAvailable) {
				km.logger.Error("Failed to load credentials", "provider", provider, "error", err)
			} else {
				km.logger.Debug("No eligible credential", "provider", provider)
			}
			metrics.GenerationAttempts.WithLabelValues(provider, metrics.OutcomeSkipped).Inc()
			continue
		}

		text, err := km.call(ctx, provider, llm.Request{
			Secret:    cred.Secret,
			Model:     cred.Model,
			SessionID: sessionID,
			Persona:   persona,
			Prompt:    prompt,
		})
		if err != nil {
			metrics.GenerationAttempts.WithLabelValues(provider, metrics.OutcomeFailure).Inc()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			km.logger.Warn("Generation failed, trying next provider",
				"provider", provider, "credential_id", cred.ID, "key_suffix", safeKeySuffix(cred.Secret), "error", err)
			continue
		}

		metrics.GenerationAttempts.WithLabelValues(provider, metrics.OutcomeSuccess).Inc()
		km.logger.Info("Generation succeeded", "provider", provider, "credential_id", cred.ID, "model", cred.Model)
		return &Result{Text: text, CredentialID: cred.ID, Provider: provider, Model: cred.Model}, nil
	}

	return km.generateWithFallback(ctx, sessionID, persona, prompt)
}

func (km *KeyManager) generateWithFallback(ctx context.Context, sessionID, persona, prompt string) (*Result, error) {
	if km.cfg.FallbackKey == "" {
		km.logger.Error("All providers exhausted and no fallback key configured")
		return nil, ErrNoCredentials
	}

	provider := km.cfg.FallbackProvider
	text, err := km.call(ctx, provider, llm.Request{
		Secret:    km.cfg.FallbackKey,
		Model:     km.cfg.FallbackModel,
		SessionID: sessionID,
		Persona:   persona,
		Prompt:    prompt,
	})
	if err != nil {
		metrics.GenerationAttempts.WithLabelValues(provider, metrics.OutcomeFailure).Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		km.logger.Error("Fallback generation failed", "provider", provider, "error", err)
		return nil, fmt.Errorf("%w: fallback failed: %v", ErrNoCredentials, err)
	}

	metrics.GenerationFallbacks.Inc()
	km.logger.Warn("Generation served by fallback key", "provider", provider, "model", km.cfg.FallbackModel)
	return &Result{Text: text, CredentialID: FallbackCredentialID, Provider: provider, Model: km.cfg.FallbackModel}, nil
}

// call runs a single bounded provider call. An empty answer counts as a failure.
func (km *KeyManager) call(ctx context.Context, provider string, req llm.Request) (string, error) {
	client, err := km.providers.Get(provider)
	if err != nil {
		return "", err
	}
	if km.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, km.timeout)
		defer cancel()
	}
	text, err := client.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", errEmptyResponse
	}
	return text, nil
}

// RecordUsage increments the usage of a credential after a confirmed success.
// The fallback sentinel is never recorded. Failures are logged, not returned.
func (km *KeyManager) RecordUsage(ctx context.Context, credentialID string) {
	if credentialID == "" || credentialID == FallbackCredentialID {
		return
	}
	// Counted even if the caller has gone away.
	if err := km.store.IncrementCredentialUsage(context.WithoutCancel(ctx), credentialID, km.now().UTC()); err != nil {
		metrics.CredentialUsageErrors.Inc()
		km.logger.Error("Failed to record credential usage", "credential_id", credentialID, "error", err)
	}
}

// ResetDailyUsage zeroes the usage counter of every credential.
func (km *KeyManager) ResetDailyUsage(ctx context.Context) error {
	affected, err := km.store.ResetAllCredentialUsage(ctx)
	if err != nil {
		km.logger.Error("Failed to reset credential usage", "error", err)
		return err
	}
	km.logger.Info("Credential usage reset", "credentials_reset", affected)
	return nil
}

// TestCredential sends a fixed probe through the credential's provider. Usage is not recorded.
func (km *KeyManager) TestCredential(ctx context.Context, cred *model.Credential) (string, error) {
	text, err := km.call(ctx, cred.Provider, llm.Request{
		Secret:    cred.Secret,
		Model:     cred.Model,
		SessionID: "test_" + cred.ID,
		Persona:   testPersona,
		Prompt:    testPrompt,
	})
	if err != nil {
		km.logger.Warn("Credential test failed", "credential_id", cred.ID, "key_suffix", safeKeySuffix(cred.Secret), "error", err)
		return "", err
	}
	km.logger.Info("Credential test succeeded", "credential_id", cred.ID)
	return text, nil
}

// safeKeySuffix returns the last 4 characters of a key for logging.
func safeKeySuffix(key string) string {
	if len(key) > 4 {
		return key[len(key)-4:]
	}
	return key
}
