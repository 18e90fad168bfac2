// Package judice implements the registry client against the Judice portal.
// The portal is session-based: authentication chains a CSRF token fetch, a
// login, and an access grant before the legala endpoints accept calls. List
// endpoints answer JSON; detail pages answer HTML fragments that are reduced
// to typed records here.
package judice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pretor/internal/platform/config"
	"pretor/internal/registry"
)

// Client talks to the Judice portal. It implements both registry.Client and
// registry.Authenticator: Authenticate replaces the cookie jar and CSRF header
// wholesale, which is how the portal session is renewed. The mutex covers that
// swap; calls already in flight finish on the session they started with.
type Client struct {
	cfg    config.Registry
	logger *slog.Logger

	mu   sync.RWMutex
	http *http.Client
	xsrf string
}

// New builds an unauthenticated portal client. The session manager drives
// Authenticate before the first call.
func New(cfg config.Registry, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.CallTimeout},
		logger: logger,
	}
}

// Authenticate performs the portal login chain and returns a fresh session
// handle. Any previously established cookies are discarded.
func (c *Client) Authenticate(ctx context.Context) (*registry.Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, registry.NewError(registry.CategoryInternal, "authenticate", "create cookie jar", err)
	}
	c.setSession(&http.Client{Jar: jar, Timeout: c.cfg.CallTimeout}, "")

	if _, err := c.get(ctx, "authenticate", c.cfg.BaseURL+"/csrf-token"); err != nil {
		return nil, err
	}

	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, registry.NewError(registry.CategoryInternal, "authenticate", "parse base URL", err)
	}
	var xsrf string
	for _, cookie := range jar.Cookies(base) {
		if cookie.Name == "XSRF-TOKEN" {
			xsrf = strings.ReplaceAll(cookie.Value, "%3D", "") + "="
		}
	}
	if xsrf == "" {
		return nil, registry.NewError(registry.CategoryOutage, "authenticate", "XSRF cookie missing from login page", nil)
	}
	c.mu.Lock()
	c.xsrf = xsrf
	c.mu.Unlock()

	login, err := json.Marshal(map[string]string{
		"user":     c.cfg.User,
		"password": c.cfg.Password,
		"tenant":   c.cfg.Tenant,
	})
	if err != nil {
		return nil, registry.NewError(registry.CategoryInternal, "authenticate", "encode login payload", err)
	}
	if _, err := c.postJSON(ctx, "authenticate", c.cfg.BaseURL+"/login", login); err != nil {
		return nil, err
	}

	grant, err := c.get(ctx, "authenticate", c.cfg.BaseURL+"/office/login/gerar-acesso")
	if err != nil {
		return nil, err
	}
	var grantBody struct {
		Retorno struct {
			URL string `json:"url"`
		} `json:"retorno"`
	}
	if err := json.Unmarshal(grant, &grantBody); err != nil || grantBody.Retorno.URL == "" {
		return nil, registry.NewError(registry.CategoryBadData, "authenticate", "access grant response malformed", err)
	}
	// This request seeds the PHP session cookie for the legala host.
	if _, err := c.get(ctx, "authenticate", grantBody.Retorno.URL); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "judice session established")
	return &registry.Session{ID: uuid.NewString(), EstablishedAt: time.Now()}, nil
}

func (c *Client) SearchLawsuitByCNJ(ctx context.Context, cnj string) (*registry.LawsuitSummary, error) {
	form := url.Values{
		"start":                []string{"0"},
		"length":               []string{"25"},
		"txtInputSearchTerm[]": []string{cnj},
		"cboType[]":            []string{"1"},
	}
	body, err := c.postForm(ctx, "search_lawsuit", c.cfg.LegalaURL+"/pgj/search/methodAjaxGetSearchProcess", form)
	if err != nil {
		return nil, err
	}

	var res struct {
		Success bool `json:"success"`
		Data    []struct {
			ID         json.Number `json:"f_id"`
			CNJNumber  string      `json:"f_cnj_number"`
			Number     string      `json:"f_number"`
			Client     int64       `json:"f_client"`
			ClientName string      `json:"client_name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, registry.NewError(registry.CategoryBadData, "search_lawsuit", "parse search response", err)
	}
	if len(res.Data) == 0 {
		return nil, registry.NewError(registry.CategoryNotFound, "search_lawsuit", fmt.Sprintf("no lawsuit for CNJ %s", cnj), nil)
	}

	first := res.Data[0]
	id, err := first.ID.Int64()
	if err != nil {
		return nil, registry.NewError(registry.CategoryBadData, "search_lawsuit", "non-numeric lawsuit id", err)
	}
	return &registry.LawsuitSummary{
		RegistryID:       id,
		CNJ:              first.CNJNumber,
		ClientRegistryID: first.Client,
		ClientName:       first.ClientName,
	}, nil
}

func (c *Client) GetLawsuitHearings(ctx context.Context, lawsuitRegistryID int64) ([]registry.Hearing, error) {
	body, err := c.get(ctx, "lawsuit_hearings", fmt.Sprintf("%s/pgj/execution-hearings/%d", c.cfg.LegalaURL, lawsuitRegistryID))
	if err != nil {
		return nil, err
	}
	return extractHearings(string(body)), nil
}

func (c *Client) GetLawsuitInfo(ctx context.Context, lawsuitRegistryID int64) (*registry.LawsuitInfo, error) {
	body, err := c.get(ctx, "lawsuit_info", fmt.Sprintf("%s/pgj/execution-hearings/%d", c.cfg.LegalaURL, lawsuitRegistryID))
	if err != nil {
		return nil, err
	}

	page := string(body)
	info, err := extractLawsuitInfo(page)
	if err != nil {
		return nil, registry.NewError(registry.CategoryBadData, "lawsuit_info", "lawsuit page missing expected fields", err)
	}
	info.RegistryID = lawsuitRegistryID
	info.Hearings = extractHearings(page)
	return info, nil
}

func (c *Client) ListOpenPublications(ctx context.Context) ([]registry.PublicationSummary, error) {
	form := url.Values{
		"start":      []string{"0"},
		"length":     []string{"9999"},
		"tab":        []string{"process"},
		"cboLawyer":  []string{"0"},
		"cboClient":  []string{""},
		"cboWarning": []string{"0"},
		"cboRead":    []string{"0"},
	}
	body, err := c.postForm(ctx, "open_publications", c.cfg.LegalaURL+"/pgj/publication/methodAjaxListPublications", form)
	if err != nil {
		return nil, err
	}

	var res struct {
		Data []map[string]string `json:"data"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, registry.NewError(registry.CategoryBadData, "open_publications", "parse publication list", err)
	}

	out := make([]registry.PublicationSummary, 0, len(res.Data))
	for _, row := range res.Data {
		summary, ok := parsePublicationRow(row)
		if !ok {
			c.logger.WarnContext(ctx, "skipping malformed publication row", "row", row["0"])
			continue
		}
		out = append(out, summary)
	}
	return out, nil
}

func (c *Client) GetPublicationDetail(ctx context.Context, publicationRegistryID int64) (*registry.PublicationDetail, error) {
	form := url.Values{"id": []string{fmt.Sprintf("%d", publicationRegistryID)}}
	body, err := c.postForm(ctx, "publication_detail", c.cfg.LegalaURL+"/pgj/publication/methodAjaxGetDescription", form)
	if err != nil {
		return nil, err
	}

	var res struct {
		Info []struct {
			ID            json.Number `json:"f_id"`
			PublisherDate string      `json:"f_publisher_date"`
			Number        string      `json:"f_number"`
			Process       int64       `json:"f_process"`
			Description   string      `json:"f_description"`
		} `json:"info"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, registry.NewError(registry.CategoryBadData, "publication_detail", "parse publication detail", err)
	}
	if len(res.Info) == 0 {
		return nil, registry.NewError(registry.CategoryNotFound, "publication_detail", fmt.Sprintf("publication %d not found", publicationRegistryID), nil)
	}

	detail := res.Info[0]
	expedition, err := parsePortalDate(detail.PublisherDate)
	if err != nil {
		return nil, registry.NewError(registry.CategoryBadData, "publication_detail", "unparseable publisher date", err)
	}
	return &registry.PublicationDetail{
		RegistryID:        publicationRegistryID,
		CNJ:               detail.Number,
		ExpeditionDate:    expedition,
		LawsuitRegistryID: detail.Process,
		Description:       detail.Description,
	}, nil
}

func (c *Client) GetClientInfo(ctx context.Context, clientRegistryID int64) (*registry.ClientInfo, error) {
	form := url.Values{"clientId": []string{fmt.Sprintf("%d", clientRegistryID)}}
	body, err := c.postForm(ctx, "client_info", c.cfg.LegalaURL+"/pgj/clients/ajax-get-clients-infobar", form)
	if err != nil {
		return nil, err
	}

	var res struct {
		Info string `json:"info"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, registry.NewError(registry.CategoryBadData, "client_info", "parse client infobar", err)
	}

	info, err := extractClientInfo(res.Info)
	if err != nil {
		return nil, registry.NewError(registry.CategoryBadData, "client_info", "client infobar missing name", err)
	}
	info.RegistryID = clientRegistryID
	return info, nil
}

// request plumbing

func (c *Client) get(ctx context.Context, op, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, registry.NewError(registry.CategoryInternal, op, "build request", err)
	}
	return c.send(op, req)
}

func (c *Client) postForm(ctx context.Context, op, rawURL string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, registry.NewError(registry.CategoryInternal, op, "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(op, req)
}

func (c *Client) postJSON(ctx context.Context, op, rawURL string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(string(body)))
	if err != nil {
		return nil, registry.NewError(registry.CategoryInternal, op, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(op, req)
}

// setSession installs a fresh transport and CSRF header pair.
func (c *Client) setSession(client *http.Client, xsrf string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.http = client
	c.xsrf = xsrf
}

func (c *Client) session() (*http.Client, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.http, c.xsrf
}

func (c *Client) send(op string, req *http.Request) ([]byte, error) {
	httpClient, xsrf := c.session()
	if xsrf != "" {
		req.Header.Set("X-XSRF-TOKEN", xsrf)
	}

	res, err := httpClient.Do(req)
	if err != nil {
		category := registry.CategoryOutage
		if req.Context().Err() != nil {
			category = registry.CategoryTimeout
		}
		return nil, registry.NewError(category, op, "portal request failed", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, registry.NewError(registry.CategoryOutage, op, "read portal response", err)
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized,
		res.StatusCode == http.StatusForbidden,
		res.StatusCode == 419: // laravel's expired-session status
		return nil, registry.NewError(registry.CategoryStaleSession, op, "portal rejected the session", nil)
	case res.StatusCode == http.StatusNotFound:
		return nil, registry.NewError(registry.CategoryNotFound, op, "portal resource not found", nil)
	case res.StatusCode >= 500:
		return nil, registry.NewError(registry.CategoryOutage, op, fmt.Sprintf("portal returned %d", res.StatusCode), nil)
	case res.StatusCode >= 400:
		return nil, registry.NewError(registry.CategoryInternal, op, fmt.Sprintf("portal returned %d", res.StatusCode), nil)
	}

	return body, nil
}

var _ registry.Client = (*Client)(nil)
var _ registry.Authenticator = (*Client)(nil)
