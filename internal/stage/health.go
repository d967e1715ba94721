package stage

import "strings"

// Health summarizes the readiness of a pipeline stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

func (h Health) String() string {
	if h.Ready {
		return h.Name + ": ready"
	}
	if detail := strings.TrimSpace(h.Detail); detail != "" {
		return h.Name + ": " + detail
	}
	return h.Name + ": not ready"
}
