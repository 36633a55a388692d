package settings

// DB config keys and defaults for settings.
const (
	// NonceRetentionMinutesKey overrides the nonce retention sweep horizon in minutes.
	NonceRetentionMinutesKey = "WALLET_NONCE_RETENTION_MINUTES"
	// DefaultNonceRetentionMinutes is the fallback retention horizon (minutes).
	DefaultNonceRetentionMinutes = 60

	// LegacyLoginEnabledKey toggles the legacy timestamp-window login path.
	LegacyLoginEnabledKey = "WALLET_LEGACY_LOGIN_ENABLED"
	// DefaultLegacyLoginEnabled keeps the legacy path on until its removal.
	DefaultLegacyLoginEnabled = true
)
