package metrics

// Config labels every exported metric with the service identity.
type Config struct {
	ServiceName string
	Environment string
}
