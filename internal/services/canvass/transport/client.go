// Package transport speaks the campaign server's HTTP API: the admission
// handshake, assignment retrieval and the own-organization status lookup.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	apperrors "github.com/hellovoter/hellovoter/internal/platform/errors"
	"github.com/hellovoter/hellovoter/internal/platform/timeouts"
	"github.com/hellovoter/hellovoter/internal/services/canvass/domain"
)

// PlaceholderToken is sent as the bearer when no credential is stored; the
// server answers it with 401.
const PlaceholderToken = "of the one ring"

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// Options configures a Client.
type Options struct {
	HTTPClient *http.Client
	// BaseURL replaces scheme://host for every request. Used to point the
	// client at a local test server.
	BaseURL string
}

// Client is an HTTP client for campaign servers.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient returns a client. A nil HTTPClient gets one with the default
// request timeout.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeouts.HTTPRequest}
	}
	return &Client{http: client, baseURL: strings.TrimRight(opts.BaseURL, "/")}
}

// HelloRequest is the handshake body.
type HelloRequest struct {
	Longitude  float64        `json:"longitude"`
	Latitude   float64        `json:"latitude"`
	DeviceInfo map[string]any `json:"dinfo"`
	InviteCode string         `json:"inviteCode"`
}

// HelloResponse is a handshake result. Only Status is set for non-200
// answers.
type HelloResponse struct {
	Status    int
	Ready     bool
	Admin     bool
	SundownOK bool
	Forms     []domain.Form
}

// Hello performs one admission handshake. Non-200 statuses are returned in
// the response with a nil error; an error means no usable answer arrived.
func (c *Client) Hello(ctx context.Context, target domain.ResolvedTarget, token string, body HelloRequest) (HelloResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return HelloResponse{}, fmt.Errorf("encode hello request: %w", err)
	}
	endpoint := c.endpoint(target.Host, domain.APIBase(target.OrgID)+"/hello")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return HelloResponse{}, fmt.Errorf("build hello request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	status, raw, err := c.do(req, token)
	if err != nil {
		return HelloResponse{}, fmt.Errorf("hello request: %w", err)
	}
	if status != http.StatusOK {
		return HelloResponse{Status: status}, nil
	}
	resp, err := decodeHello(raw)
	if err != nil {
		return HelloResponse{}, err
	}
	resp.Status = status
	return resp, nil
}

// GetForm retrieves one assignment definition.
func (c *Client) GetForm(ctx context.Context, target domain.ResolvedTarget, token string, formID string) (domain.Form, error) {
	endpoint := c.endpoint(target.Host, domain.APIBase(target.OrgID)+"/form/get") + "?formId=" + url.QueryEscape(formID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Form{}, fmt.Errorf("build form request: %w", err)
	}
	status, raw, err := c.do(req, token)
	if err != nil {
		return domain.Form{}, apperrors.WrapWithMetadata(apperrors.CodeAssignmentFetchFailed, "form request failed",
			map[string]string{"formId": formID}, err)
	}
	if status != http.StatusOK {
		return domain.Form{}, apperrors.WithMetadata(apperrors.CodeAssignmentFetchFailed, "form request rejected",
			map[string]string{"formId": formID, "status": fmt.Sprint(status)})
	}
	return decodeForm(raw, formID)
}

// OrgStatus is the answer of the own-organization lookup.
type OrgStatus struct {
	Status int
	OrgID  string
}

// OrgStatus asks the regional host whether the volunteer owns an
// organization.
func (c *Client) OrgStatus(ctx context.Context, region string, token string) (OrgStatus, error) {
	endpoint := c.endpoint(domain.RegionalHost(region), "/orgid/v1/status")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return OrgStatus{}, fmt.Errorf("build status request: %w", err)
	}
	status, raw, err := c.do(req, token)
	if err != nil {
		return OrgStatus{}, fmt.Errorf("status request: %w", err)
	}
	result := OrgStatus{Status: status}
	if status == http.StatusOK && gjson.ValidBytes(raw) {
		result.OrgID = strings.TrimSpace(unwrapData(gjson.ParseBytes(raw)).Get("orgid").String())
	}
	return result, nil
}

func (c *Client) endpoint(host, path string) string {
	if c.baseURL != "" {
		return c.baseURL + path
	}
	scheme := "https"
	if domain.UsesPlainHTTP(host) {
		scheme = "http"
	}
	return scheme + "://" + host + path
}

func (c *Client) do(req *http.Request, token string) (int, []byte, error) {
	if strings.TrimSpace(token) == "" {
		token = PlaceholderToken
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

// unwrapData returns the "data" object when the server used the envelope.
func unwrapData(result gjson.Result) gjson.Result {
	if data := result.Get("data"); data.IsObject() {
		return data
	}
	return result
}

func decodeHello(raw []byte) (HelloResponse, error) {
	if !gjson.ValidBytes(raw) {
		return HelloResponse{}, fmt.Errorf("hello response is not valid json")
	}
	body := unwrapData(gjson.ParseBytes(raw))
	resp := HelloResponse{
		Ready:     body.Get("ready").Bool(),
		Admin:     body.Get("admin").Bool(),
		SundownOK: body.Get("sundownok").Bool(),
	}
	for _, item := range body.Get("forms").Array() {
		form, ok := formRef(item)
		if !ok {
			continue
		}
		resp.Forms = append(resp.Forms, form)
	}
	return resp, nil
}

// formRef accepts a form object or a bare id.
func formRef(item gjson.Result) (domain.Form, bool) {
	if item.IsObject() {
		var form domain.Form
		if err := form.UnmarshalJSON([]byte(item.Raw)); err != nil {
			return domain.Form{}, false
		}
		return form, true
	}
	if id := strings.TrimSpace(item.String()); id != "" && (item.Type == gjson.String || item.Type == gjson.Number) {
		return domain.Form{ID: id}, true
	}
	return domain.Form{}, false
}

func decodeForm(raw []byte, formID string) (domain.Form, error) {
	if !gjson.ValidBytes(raw) {
		return domain.Form{}, apperrors.WithMetadata(apperrors.CodeAssignmentFetchFailed, "form response is not valid json",
			map[string]string{"formId": formID})
	}
	body := unwrapData(gjson.ParseBytes(raw))
	if !body.IsObject() {
		return domain.Form{}, apperrors.WithMetadata(apperrors.CodeAssignmentFetchFailed, "form response is not an object",
			map[string]string{"formId": formID})
	}
	id := body.Get("id").String()
	if id == "" {
		id = formID
	}
	return domain.Form{ID: id, Definition: json.RawMessage(body.Raw)}, nil
}
