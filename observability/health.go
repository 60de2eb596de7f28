package observability

import "context"

// HealthStatus is the health state of a component or of the whole
// application.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes one component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// ServiceHealth aggregates component health into an overall status.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker is implemented by components that can report their
// health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// NewServiceHealth starts an up report for service.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{
		Service: service,
		Status:  HealthStatusUp,
		Version: version,
	}
}

// AddComponent records ch and lowers the overall status when the
// component is degraded or down.
func (sh *ServiceHealth) AddComponent(ch Health) {
	sh.Components = append(sh.Components, ch)

	switch ch.Status {
	case HealthStatusDown:
		sh.Status = HealthStatusDown
	case HealthStatusDegraded:
		if sh.Status != HealthStatusDown {
			sh.Status = HealthStatusDegraded
		}
	}
}

// PingChecker reports health from a ping function, such as a database
// connectivity probe.
type PingChecker struct {
	Name string
	Ping func(ctx context.Context) error
}

// CheckHealth runs the ping and maps failure to a down status.
func (p PingChecker) CheckHealth(ctx context.Context) Health {
	if p.Ping == nil {
		return Health{Name: p.Name, Status: HealthStatusUp}
	}
	if err := p.Ping(ctx); err != nil {
		return Health{Name: p.Name, Status: HealthStatusDown, Message: err.Error()}
	}
	return Health{Name: p.Name, Status: HealthStatusUp}
}
