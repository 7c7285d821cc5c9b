package output

// EnvPort reads process settings and secrets.
type EnvPort interface {
	Get(key string) string
	MustGet(key string) string
	GetBool(key string, defaultValue bool) bool
	GetInt(key string, defaultValue int) int
}
