package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gwillem/jojo/pkg/control"
	"github.com/gwillem/jojo/pkg/robot"
)

// DefaultTimeout bounds a single relay request.
const DefaultTimeout = 2 * time.Second

// HTTPClient sends commands to the relay's HTTP API and reads robot status.
type HTTPClient struct {
	BaseURL string
	client  *http.Client
}

// NewHTTPClient creates a client for the relay at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Dispatch sends cmd. Arm joints go through the MQTT publish endpoint; drive
// and action commands go to the robot's command endpoint.
func (c *HTTPClient) Dispatch(ctx context.Context, cmd control.Command) error {
	if cmd.RobotID == "" {
		return robot.ErrNoSelection
	}

	var (
		path string
		body any
	)
	switch cmd.Channel {
	case control.ChannelArm:
		if cmd.Value == nil {
			return fmt.Errorf("joint command %s has no value", cmd.Target)
		}
		payload, err := json.Marshal(JointPayload{Value: *cmd.Value})
		if err != nil {
			return fmt.Errorf("marshal joint payload: %w", err)
		}
		path = "/api/mqtt/publish"
		body = PublishRequest{Topic: ArmTopic(cmd.RobotID, cmd.Target), Payload: payload}
	case control.ChannelDrive, control.ChannelAction:
		path = "/api/robot/" + url.PathEscape(cmd.RobotID) + "/command"
		body = CommandRequest{Action: cmd.Target, Value: cmd.Value, Address: cmd.Address}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, cmd.Channel)
	}

	var resp CommandResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s", ErrRejected, resp.Error)
	}
	return nil
}

// FetchStatus reads the robot's battery level and online flag.
func (c *HTTPClient) FetchStatus(ctx context.Context, robotID string) (robot.Status, error) {
	var resp StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/robot/"+url.PathEscape(robotID)+"/status", nil, &resp); err != nil {
		return robot.Status{}, err
	}
	if !resp.Success || resp.Robot == nil {
		return robot.Status{}, fmt.Errorf("%w: %s", ErrRejected, resp.Error)
	}
	return robot.Status{
		BatteryLevel: resp.Robot.BatteryLevel,
		Online:       resp.Robot.IsOnline,
	}, nil
}

// do performs one JSON request. Non-2xx replies are decoded for their error
// message and returned as ErrRejected.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("%w: %s (%d)", ErrRejected, e.Error, resp.StatusCode)
		}
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
