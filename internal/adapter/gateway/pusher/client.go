package pusher

import (
	"context"
	"strings"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/gateway/exchange/common"
	presenter "github.com/ugurumutorak-max/crypto-dashboard/internal/adapter/presenter/snapshotjson"
)

const (
	UpdatePath   = "/api/worker/update"
	SecretHeader = "X-Worker-Secret"
)

type Response struct {
	Status     string `json:"status"`
	Version    uint64 `json:"version"`
	LastUpdate string `json:"last_update"`
}

// Client sends reconciled lists to a dashboard's push endpoint.
type Client struct {
	http *common.Client
}

func New(dashboardURL, secret string) *Client {
	c := common.New("dashboard", strings.TrimRight(dashboardURL, "/"))
	c.SetHeader(SecretHeader, secret)
	return &Client{http: c}
}

func (c *Client) Push(ctx context.Context, req presenter.PushRequest) (Response, error) {
	var out Response
	err := c.http.PostJSON(ctx, "push", UpdatePath, req, &out)
	return out, err
}
