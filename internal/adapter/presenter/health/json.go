package healthjson

import (
	"net/http"
	"time"

	usecase "github.com/ugurumutorak-max/crypto-dashboard/internal/usecase/health"
)

type Response struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Commit    string            `json:"commit,omitempty"`
	BuildTime string            `json:"buildTime,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Checks    map[string]string `json:"checks"`
	Reasons   map[string]string `json:"reasons,omitempty"`
	Now       string            `json:"now,omitempty"`
}

// Map answers 503 while any check is degraded, so load balancers hold traffic
// until the first snapshot is installed.
func Map(out usecase.ReadinessOutput) (int, Response) {
	code := http.StatusOK
	if !out.Status.OK() {
		code = http.StatusServiceUnavailable
	}
	checks := make(map[string]string, len(out.Checks))
	for name, st := range out.Checks {
		checks[name] = string(st)
	}
	resp := Response{
		Status:    string(out.Status),
		Version:   out.Version,
		Commit:    out.Commit,
		BuildTime: out.BuildTime,
		Uptime:    out.Uptime.String(),
		Checks:    checks,
		Now:       out.Now.Format(time.RFC3339),
	}
	if len(out.Reasons) > 0 {
		resp.Reasons = out.Reasons
	}
	return code, resp
}
