package constants

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"

	// EnvPrefix is prepended to every environment override,
	// e.g. LEDGER_DATABASE_HOST for database.host.
	EnvPrefix = "LEDGER"

	ServiceName = "clinic_ledger"
)
