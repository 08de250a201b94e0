package e2etest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/descope/virtualwebauthn"
)

const (
	readyTimeout      = time.Second
	readyPollInterval = 100 * time.Millisecond
)

// Client drives GymPal like a browser with a passkey authenticator. Redirects are followed and cookies kept.
type Client struct {
	client        *http.Client
	url           string
	rp            virtualwebauthn.RelyingParty
	authenticator virtualwebauthn.Authenticator
}

// NewClient creates a client for the server at url.
//
// rpID and rpOrigin must match the WebAuthn relying party configured on the server.
func NewClient(url, rpID, rpOrigin string) (*Client, error) {
	jar, err := newUnsafeCookieJar()
	if err != nil {
		return nil, fmt.Errorf("create unsafe cookie jar: %w", err)
	}
	return &Client{
		client:        &http.Client{Jar: jar},
		url:           url,
		rp:            virtualwebauthn.RelyingParty{Name: "GymPal", ID: rpID, Origin: rpOrigin},
		authenticator: virtualwebauthn.NewAuthenticator(),
	}, nil
}

// NewClientWithSecFetchSite creates a client that sends the given Sec-Fetch-Site header with every request, e.g.
// "cross-site" to act as a page on another origin.
func NewClientWithSecFetchSite(url, rpID, rpOrigin, secFetchSite string) (*Client, error) {
	c, err := NewClient(url, rpID, rpOrigin)
	if err != nil {
		return nil, err
	}
	c.client.Transport = headerTransport{key: "Sec-Fetch-Site", value: secFetchSite, next: http.DefaultTransport}
	return c, nil
}

type headerTransport struct {
	key   string
	value string
	next  http.RoundTripper
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(t.key, t.value)
	return t.next.RoundTrip(req) //nolint:wrapcheck // transparent transport.
}

// WaitForReady polls urlPath until it answers 200 OK, ctx is done or a second has passed.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	deadline := time.Now().Add(readyTimeout)
	for {
		resp, err := c.Get(ctx, urlPath)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return errors.New("timeout waiting for endpoint to be ready")
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s: %w", urlPath, ctx.Err())
		case <-time.After(readyPollInterval):
		}
	}
}

func (c *Client) do(ctx context.Context, method, urlPath, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, urlPath, err)
	}
	return resp, nil
}

// Get fetches urlPath. The caller closes the response body.
func (c *Client) Get(ctx context.Context, urlPath string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, urlPath, "", nil)
}

// Post sends body to urlPath. The caller closes the response body.
func (c *Client) Post(ctx context.Context, urlPath string, contentType string, body io.Reader) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, urlPath, contentType, body)
}

// GetDoc fetches urlPath and parses the resulting page.
func (c *Client) GetDoc(ctx context.Context, urlPath string) (*goquery.Document, error) {
	resp, err := c.Get(ctx, urlPath)
	if err != nil {
		return nil, err
	}
	return parseDoc(resp)
}

// PostForm posts formData to urlPath, follows redirects and parses the resulting page.
func (c *Client) PostForm(ctx context.Context, urlPath string, formData neturl.Values) (*goquery.Document, error) {
	resp, err := c.Post(ctx, urlPath, "application/x-www-form-urlencoded", strings.NewReader(formData.Encode()))
	if err != nil {
		return nil, err
	}
	return parseDoc(resp)
}

func parseDoc(resp *http.Response) (*goquery.Document, error) {
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	doc.Url = resp.Request.URL
	return doc, nil
}

// SubmitForm submits the form of doc whose action is formActionURLPath and parses the resulting page. Hidden inputs
// are sent as they are; formFields maps label texts to the values of the inputs they label.
func (c *Client) SubmitForm(
	ctx context.Context,
	doc *goquery.Document,
	formActionURLPath string,
	formFields map[string]string,
) (*goquery.Document, error) {
	form, err := FindForm(doc, formActionURLPath)
	if err != nil {
		return nil, err
	}

	formData := neturl.Values{}
	form.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
		if name, ok := input.Attr("name"); ok {
			formData.Set(name, input.AttrOr("value", ""))
		}
	})
	for labelText, value := range formFields {
		input, findErr := FindInputForLabel(form, labelText)
		if findErr != nil {
			return nil, findErr
		}
		name, ok := input.Attr("name")
		if !ok {
			return nil, fmt.Errorf("input labelled %q in form %s has no name", labelText, formActionURLPath)
		}
		formData.Set(name, value)
	}
	return c.PostForm(ctx, formActionURLPath, formData)
}

// ceremony posts body to path and returns the response body, which holds the WebAuthn options of the next step.
func (c *Client) ceremony(ctx context.Context, path string, body string) (string, error) {
	resp, err := c.Post(ctx, path, "application/json", strings.NewReader(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	var buf bytes.Buffer
	if _, err = buf.ReadFrom(resp.Body); err != nil {
		return "", fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: unexpected status code: %d", path, resp.StatusCode)
	}
	return buf.String(), nil
}

// Register creates a passkey for a new user from the landing page and returns the home page.
func (c *Client) Register(ctx context.Context) (*goquery.Document, error) {
	if err := c.requireForm(ctx, "/api/registration/start"); err != nil {
		return nil, err
	}
	raw, err := c.ceremony(ctx, "/api/registration/start", "")
	if err != nil {
		return nil, fmt.Errorf("start registration: %w", err)
	}
	attOpts, err := virtualwebauthn.ParseAttestationOptions(raw)
	if err != nil {
		return nil, fmt.Errorf("parse attestation options: %w", err)
	}

	credential := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	attestation := virtualwebauthn.CreateAttestationResponse(c.rp, c.authenticator, credential, *attOpts)
	if _, err = c.ceremony(ctx, "/api/registration/finish", attestation); err != nil {
		return nil, fmt.Errorf("finish registration: %w", err)
	}

	c.authenticator.AddCredential(credential)
	// Discoverable passkey logins identify the user by handle.
	c.authenticator.Options.UserHandle = []byte(attOpts.UserID)
	return c.GetDoc(ctx, "/")
}

// Login signs in with the passkey created by Register and returns the home page.
func (c *Client) Login(ctx context.Context) (*goquery.Document, error) {
	if len(c.authenticator.Credentials) == 0 {
		return nil, errors.New("no passkey registered")
	}
	if err := c.requireForm(ctx, "/api/login/start"); err != nil {
		return nil, err
	}
	raw, err := c.ceremony(ctx, "/api/login/start", "")
	if err != nil {
		return nil, fmt.Errorf("start login: %w", err)
	}
	asOpts, err := virtualwebauthn.ParseAssertionOptions(raw)
	if err != nil {
		return nil, fmt.Errorf("parse assertion options: %w", err)
	}

	assertion := virtualwebauthn.CreateAssertionResponse(c.rp, c.authenticator, c.authenticator.Credentials[0], *asOpts)
	if _, err = c.ceremony(ctx, "/api/login/finish", assertion); err != nil {
		return nil, fmt.Errorf("finish login: %w", err)
	}
	return c.GetDoc(ctx, "/")
}

// Logout signs out through the form on the settings page.
func (c *Client) Logout(ctx context.Context) (*goquery.Document, error) {
	doc, err := c.GetDoc(ctx, "/preferences")
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return c.SubmitForm(ctx, doc, "/api/logout", nil)
}

// requireForm checks that the landing page offers the form posting to action.
func (c *Client) requireForm(ctx context.Context, action string) error {
	doc, err := c.GetDoc(ctx, "/")
	if err != nil {
		return fmt.Errorf("get landing page: %w", err)
	}
	_, err = FindForm(doc, action)
	return err
}
